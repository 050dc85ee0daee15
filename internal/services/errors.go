package services

import (
	"errors"
	"fmt"
)

// Error categories. Every typed error below matches exactly one of these
// with errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("record not found")
	ErrConflict    = errors.New("conflict")
	ErrConsistency = errors.New("ledger consistency check failed")
)

// ValidationError reports malformed input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a missing entity, or one outside the caller's plan
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports an operation the current ledger state does not allow
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ConsistencyError reports a failed post-condition. The transaction that
// produced it is always rolled back.
type ConsistencyError struct {
	Detail string
}

func (e *ConsistencyError) Error() string {
	return "ledger consistency check failed: " + e.Detail
}

func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistency }

// Conflict reasons surfaced verbatim to callers
const (
	ReasonAlreadyPaid    = "already paid"
	ReasonSelfFunding    = "self-funding"
	ReasonNotCard        = "funding debt is not a card"
	ReasonNotLatest      = "only the most recent payment can be undone"
	ReasonPeriodMismatch = "payment does not belong to the given period"
	ReasonCardChanged    = "card balance has changed; cannot undo this payment"
	ReasonExpenseLinked  = "expense-linked debts are managed by the expense sync"
)

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func conflict(reason string) error {
	return &ConflictError{Reason: reason}
}
