package services

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrBatchNotFound       = errors.New("batch not found")
	ErrBatchExpired        = errors.New("batch token expired")
	ErrBatchRequired       = errors.New("batch id is required for units that do not commit")
	ErrBatchMismatch       = errors.New("unit does not match the account or payment method of its batch")
	ErrBatchFull           = errors.New("batch already holds all of its units")
	ErrConcurrentUpdate    = errors.New("account was modified concurrently")
	ErrInvalidTransition   = errors.New("invalid reservation status transition")
	ErrAccountRequired     = errors.New("account deduction requires a primary account")
	ErrSameAccount         = errors.New("buffer account must differ from primary account")
)

// ValidationError is a booking request rejected before any mutation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func reject(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// InsufficientBalanceError is returned when a deduction would overdraw.
type InsufficientBalanceError struct {
	Available int
	Requested int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %d, requested %d", e.Available, e.Requested)
}
