package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// =====================================================
// CREATE BORROWING REQUEST
// =====================================================

type CreateBorrowingRequest struct {
	BookID             uuid.UUID `json:"book_id"`
	ExpectedReturnDate string    `json:"expected_return_date"` // YYYY-MM-DD
}

// Validate validates CreateBorrowingRequest
func (req CreateBorrowingRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.BookID, validation.Required),
		validation.Field(&req.ExpectedReturnDate, validation.Required, validation.Date(time.DateOnly)),
	)
}

// ParsedExpectedReturnDate returns the expected return date as a UTC
// calendar date. Call only after Validate.
func (req CreateBorrowingRequest) ParsedExpectedReturnDate() (time.Time, error) {
	parsed, err := time.Parse(time.DateOnly, req.ExpectedReturnDate)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(parsed), nil
}

// =====================================================
// LIST BORROWINGS REQUEST
// =====================================================

type ListBorrowingsRequest struct {
	UserID   *uuid.UUID `form:"user"`
	IsActive *bool      `form:"is_active"`
	Page     int        `form:"page"`
	Limit    int        `form:"limit"`
}

// Normalize applies pagination defaults and bounds.
func (req *ListBorrowingsRequest) Normalize() {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
}

// =====================================================
// RESPONSES
// =====================================================

type BorrowingResponse struct {
	ID                 uuid.UUID  `json:"id"`
	BorrowDate         time.Time  `json:"borrow_date"`
	ExpectedReturnDate time.Time  `json:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date"`
	BookID             uuid.UUID  `json:"book_id"`
	BookTitle          string     `json:"book_title"`
	UserID             uuid.UUID  `json:"user_id"`
	IsActive           bool       `json:"is_active"`
}

type ListBorrowingsResponse struct {
	Items      []BorrowingResponse `json:"items"`
	TotalItems int                 `json:"total_items"`
	TotalPages int                 `json:"total_pages"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
}
