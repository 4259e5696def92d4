package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrBookNotFound is returned when a book does not exist
	ErrBookNotFound = errors.New("book not found")

	// ErrOutOfStock is returned when a reservation finds no available copies
	ErrOutOfStock = errors.New("no copies of this book are currently available")

	// ErrInvalidCoverType is returned for cover values other than HARD or SOFT
	ErrInvalidCoverType = errors.New("invalid cover type, must be one of: HARD, SOFT")

	// ErrInvalidInventory is returned when the inventory count is negative
	ErrInvalidInventory = errors.New("inventory cannot be negative")

	// ErrInvalidDailyFee is returned when the daily fee is negative or has
	// more than two fractional digits
	ErrInvalidDailyFee = errors.New("daily fee must be non-negative with at most 2 decimal places")

	// ErrBookHasBorrowings is returned when deleting a book that still has
	// borrowing records referencing it
	ErrBookHasBorrowings = errors.New("book has borrowing records and cannot be deleted")
)

// NewBookNotFoundError creates a detailed not found error
func NewBookNotFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrBookNotFound, id)
}

// NewOutOfStockError creates an out of stock error with book details
func NewOutOfStockError(id uuid.UUID) error {
	return fmt.Errorf("%w: book_id=%s", ErrOutOfStock, id)
}

// IsNotFoundError checks if error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookNotFound)
}

// IsOutOfStockError checks if error is an out of stock error
func IsOutOfStockError(err error) bool {
	return errors.Is(err, ErrOutOfStock)
}

// IsValidationError checks if error is a catalog validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidCoverType) ||
		errors.Is(err, ErrInvalidInventory) ||
		errors.Is(err, ErrInvalidDailyFee)
}
