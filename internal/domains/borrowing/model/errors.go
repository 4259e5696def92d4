package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrBorrowingNotFound is returned when a borrowing record does not exist
	ErrBorrowingNotFound = errors.New("borrowing not found")

	// ErrAlreadyReturned is returned when returning a loan that already has
	// an actual return date
	ErrAlreadyReturned = errors.New("borrowing has already been returned")

	// ErrActiveBorrowingExists is returned when a user with an active loan
	// tries to create another one
	ErrActiveBorrowingExists = errors.New("user already has an active borrowing")

	// ErrInvalidDateRange is returned when the expected return date is
	// earlier than the borrow date
	ErrInvalidDateRange = errors.New("expected return date cannot be earlier than the borrow date")

	// ErrTransactionConflict is returned after the bounded internal retries
	// for a transient serialization conflict are exhausted. The whole
	// operation is safe to retry.
	ErrTransactionConflict = errors.New("operation aborted by a concurrent transaction, retry the request")
)

// NewBorrowingNotFoundError creates a detailed not found error
func NewBorrowingNotFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrBorrowingNotFound, id)
}

// IsNotFoundError checks if error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBorrowingNotFound)
}

// IsBusinessRuleError checks if error is a user-facing lifecycle rule
// violation rather than an infrastructure failure
func IsBusinessRuleError(err error) bool {
	return errors.Is(err, ErrAlreadyReturned) ||
		errors.Is(err, ErrActiveBorrowingExists) ||
		errors.Is(err, ErrInvalidDateRange)
}
