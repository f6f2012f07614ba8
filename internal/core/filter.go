package core

import "fmt"

// TypeSelector narrows a ledger query by income/outgoing flag.
type TypeSelector int

const (
	AnyType      TypeSelector = 0
	IncomeOnly   TypeSelector = 1
	OutgoingOnly TypeSelector = 2
)

// Order is one of the whitelisted ledger orderings.
type Order string

const (
	DateDesc   Order = "date desc"
	DateAsc    Order = "date asc"
	AmountDesc Order = "amount desc"
	AmountAsc  Order = "amount asc"
)

// ItemFilter selects ledger rows. A non-zero ID selects a single row and
// every other field is ignored. Otherwise UserID is required.
//
// Year and Month apply only when both are set. Offset and Limit apply only
// when both are set; an Offset of zero is a real offset.
type ItemFilter struct {
	ID       int64
	UserID   int64
	Year     int
	Month    int
	Type     TypeSelector
	Category string
	Order    Order
	Offset   *int
	Limit    *int
}

// HasMonth reports whether the year+month predicate applies.
func (f ItemFilter) HasMonth() bool {
	return f.Year != 0 && f.Month != 0
}

// Paginated reports whether offset+limit apply.
func (f ItemFilter) Paginated() bool {
	return f.Offset != nil && f.Limit != nil
}

// Validate checks every field against the accepted values.
func (f ItemFilter) Validate() error {
	if f.ID == 0 && f.UserID == 0 {
		return ErrNoSelector
	}
	if f.ID != 0 {
		return nil
	}
	if f.HasMonth() && (f.Month < 1 || f.Month > 12) {
		return fmt.Errorf("%w: month %d", ErrInvalidFilter, f.Month)
	}
	switch f.Type {
	case AnyType, IncomeOnly, OutgoingOnly:
	default:
		return fmt.Errorf("%w: type selector %d", ErrInvalidFilter, f.Type)
	}
	switch f.Order {
	case "", DateDesc, DateAsc, AmountDesc, AmountAsc:
	default:
		return fmt.Errorf("%w: order %q", ErrInvalidFilter, f.Order)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return fmt.Errorf("%w: offset %d", ErrInvalidFilter, *f.Offset)
	}
	if f.Limit != nil && *f.Limit < 0 {
		return fmt.Errorf("%w: limit %d", ErrInvalidFilter, *f.Limit)
	}
	return nil
}

// CategoryFilter selects categories by ID, or by user and optional type.
type CategoryFilter struct {
	ID     string
	UserID int64
	Type   *BillType
}

func (f CategoryFilter) Validate() error {
	if f.ID == "" && f.UserID == 0 {
		return ErrNoSelector
	}
	if f.Type != nil {
		if err := f.Type.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}
	}
	return nil
}
