package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when a user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when registering an email that already exists
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidCredentials is returned on failed login
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidRefreshToken is returned when a refresh token is unknown,
	// expired, or has been rotated away
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// NewUserNotFoundError creates a detailed not found error
func NewUserNotFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrUserNotFound, id)
}

// IsNotFoundError checks if error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}
