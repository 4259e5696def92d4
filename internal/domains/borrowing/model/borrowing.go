package model

import (
	"time"

	"github.com/google/uuid"
)

// Borrowing represents one loan of one copy of a book.
//
// The actual return date is the single source of truth for liveness:
// IsActive is a generated column in Postgres
// (actual_return_date IS NULL) and is never written directly, so the
// two can not disagree.
type Borrowing struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	BorrowDate         time.Time  `json:"borrow_date" db:"borrow_date"`
	ExpectedReturnDate time.Time  `json:"expected_return_date" db:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date" db:"actual_return_date"`
	BookID             uuid.UUID  `json:"book_id" db:"book_id"`
	UserID             uuid.UUID  `json:"user_id" db:"user_id"`
	IsActive           bool       `json:"is_active" db:"is_active"`
}

// BorrowingWithBook carries the joined book title for read paths.
type BorrowingWithBook struct {
	Borrowing
	BookTitle string `json:"book_title" db:"book_title"`
}

// OverdueLoan is the projection used by the overdue reminder job.
type OverdueLoan struct {
	Borrowing
	BookTitle string `db:"book_title"`
	UserEmail string `db:"user_email"`
}

// DateOnly truncates t to its calendar date in UTC. Borrow and return
// dates are DATE columns; time-of-day never participates in the
// lifecycle rules.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (b *BorrowingWithBook) ToResponse() BorrowingResponse {
	return BorrowingResponse{
		ID:                 b.ID,
		BorrowDate:         b.BorrowDate,
		ExpectedReturnDate: b.ExpectedReturnDate,
		ActualReturnDate:   b.ActualReturnDate,
		BookID:             b.BookID,
		BookTitle:          b.BookTitle,
		UserID:             b.UserID,
		IsActive:           b.IsActive,
	}
}

// ToResponseList converts joined rows to response DTOs
func ToResponseList(rows []BorrowingWithBook) []BorrowingResponse {
	responses := make([]BorrowingResponse, 0, len(rows))
	for i := range rows {
		responses = append(responses, rows[i].ToResponse())
	}
	return responses
}
