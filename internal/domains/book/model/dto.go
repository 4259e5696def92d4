package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// CREATE BOOK REQUEST
// =====================================================

type CreateBookRequest struct {
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Cover     CoverType       `json:"cover"`
	Inventory int             `json:"inventory"`
	DailyFee  decimal.Decimal `json:"daily_fee"`
}

// Validate validates CreateBookRequest
func (req CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Author, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Cover, validation.Required, validation.By(validCoverType)),
		validation.Field(&req.Inventory, validation.Min(0)),
		validation.Field(&req.DailyFee, validation.By(validDailyFee)),
	)
}

// =====================================================
// UPDATE BOOK REQUEST
// =====================================================

// UpdateBookRequest carries partial catalog edits. Inventory is
// deliberately absent: once loans exist, the count moves only through
// reserve/release, so direct edits would cause lost updates.
type UpdateBookRequest struct {
	Title    *string          `json:"title,omitempty"`
	Author   *string          `json:"author,omitempty"`
	Cover    *CoverType       `json:"cover,omitempty"`
	DailyFee *decimal.Decimal `json:"daily_fee,omitempty"`
}

// Validate validates UpdateBookRequest
func (req UpdateBookRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&req.Author, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&req.Cover, validation.By(validCoverTypePtr)),
		validation.Field(&req.DailyFee, validation.By(validDailyFeePtr)),
	)
}

// =====================================================
// LIST BOOKS REQUEST
// =====================================================

type ListBooksRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize applies pagination defaults and bounds.
func (req *ListBooksRequest) Normalize() {
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

type BookResponse struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Cover     CoverType       `json:"cover"`
	Inventory int             `json:"inventory"`
	DailyFee  decimal.Decimal `json:"daily_fee"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ListBooksResponse struct {
	Items      []BookResponse `json:"items"`
	TotalItems int            `json:"total_items"`
	TotalPages int            `json:"total_pages"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}

// =====================================================
// VALIDATION RULES
// =====================================================

func validCoverType(value interface{}) error {
	cover, ok := value.(CoverType)
	if !ok || !cover.IsValid() {
		return ErrInvalidCoverType
	}
	return nil
}

func validCoverTypePtr(value interface{}) error {
	cover, ok := value.(*CoverType)
	if !ok || cover == nil {
		return nil
	}
	if !cover.IsValid() {
		return ErrInvalidCoverType
	}
	return nil
}

// validDailyFee enforces a non-negative fee with at most two
// fractional digits (fees are stored as NUMERIC(6,2)).
func validDailyFee(value interface{}) error {
	fee, ok := value.(decimal.Decimal)
	if !ok {
		return ErrInvalidDailyFee
	}
	return checkDailyFee(fee)
}

func validDailyFeePtr(value interface{}) error {
	fee, ok := value.(*decimal.Decimal)
	if !ok || fee == nil {
		return nil
	}
	return checkDailyFee(*fee)
}

func checkDailyFee(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return ErrInvalidDailyFee
	}
	if fee.Exponent() < -2 && !fee.Equal(fee.Round(2)) {
		return ErrInvalidDailyFee
	}
	return nil
}
