package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CoverType represents valid book cover types
type CoverType string

const (
	CoverHard CoverType = "HARD"
	CoverSoft CoverType = "SOFT"
)

func (c CoverType) IsValid() bool {
	switch c {
	case CoverHard, CoverSoft:
		return true
	}
	return false
}

func (c CoverType) String() string {
	return string(c)
}

// Book represents a catalog title. Inventory counts copies currently
// available for borrowing; it is mutated only through the borrowing
// lifecycle (reserve on loan creation, release on return), never by
// catalog edits.
type Book struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Title     string          `json:"title" db:"title"`
	Author    string          `json:"author" db:"author"`
	Cover     CoverType       `json:"cover" db:"cover"`
	Inventory int             `json:"inventory" db:"inventory"`
	DailyFee  decimal.Decimal `json:"daily_fee" db:"daily_fee"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

func (b *Book) ToResponse() BookResponse {
	return BookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Cover:     b.Cover,
		Inventory: b.Inventory,
		DailyFee:  b.DailyFee,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// ToResponseList converts a slice of books to response DTOs
func ToResponseList(books []Book) []BookResponse {
	responses := make([]BookResponse, 0, len(books))
	for i := range books {
		responses = append(responses, books[i].ToResponse())
	}
	return responses
}
