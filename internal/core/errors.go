package core

import "errors"

// Store and import failures. Storage wraps driver errors with one of these so
// callers can branch with errors.Is while keeping the driver message.
var (
	ErrConstraintViolation = errors.New("constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrDuplicateCategoryID = errors.New("duplicate category id")
	ErrUnknownCategory     = errors.New("unknown category")
	ErrNoSelector          = errors.New("no user id or item id specified")
	ErrTransactionAborted  = errors.New("transaction aborted")
	ErrNotFound            = errors.New("not found")
	ErrInvalidFilter       = errors.New("invalid filter")
	ErrInvalidCell         = errors.New("invalid cell")
)

// Validation failures.
var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid bill type")
	ErrEmptyName     = errors.New("empty category name")
	ErrEmptyCategory = errors.New("empty category")
	ErrZeroTime      = errors.New("time cannot be zero")
)
