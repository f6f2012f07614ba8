package core

import (
	"strings"
	"time"
)

const (
	Outgoing BillType = 0
	Income   BillType = 1
)

type (
	// BillType is the stored income/outgoing flag.
	BillType int

	Money struct {
		Cents int64
	}

	User struct {
		ID            int64
		Username      string
		PasswordHash  string
		CreatedAt     time.Time
		LastLoginTime *time.Time
		Role          int
	}

	Category struct {
		ID        string
		UserID    int64
		WriteTime time.Time
		Type      BillType
		Name      string
	}

	// NewCategory is the caller-supplied part of a category.
	NewCategory struct {
		Type BillType
		Name string
	}

	LedgerItem struct {
		ID        int64
		UserID    int64
		EventTime time.Time
		WriteTime time.Time
		Type      BillType
		Category  string // Category ID
		Amount    Money
	}

	// NewItem is a ledger entry as submitted by a caller. Time is unix seconds
	// and Category is a category ID.
	NewItem struct {
		Time     int64
		Input    BillType
		Category string
		Amount   Money
	}

	// Bill is an imported record whose category is given by name.
	Bill struct {
		Type     BillType
		Time     time.Time
		Category string
		Amount   Money
	}

	ItemPage struct {
		Total int
		Items []LedgerItem
	}
)

func (t BillType) Validate() error {
	switch t {
	case Outgoing, Income:
		return nil
	default:
		return ErrInvalidType
	}
}

func (t BillType) String() string {
	if t == Income {
		return "income"
	}
	return "outgoing"
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c NewCategory) Validate() error {
	if err := c.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (i NewItem) Validate() error {
	if err := i.Input.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.Category) == "" {
		return ErrEmptyCategory
	}
	return i.Amount.Validate()
}

func (b Bill) Validate() error {
	if err := b.Type.Validate(); err != nil {
		return err
	}
	if b.Time.IsZero() {
		return ErrZeroTime
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	return b.Amount.Validate()
}
