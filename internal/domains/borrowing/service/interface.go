package service

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/borrowing/model"
)

// Notifier is the outbound notification channel. Delivery is
// best-effort and never retried here.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// ServiceInterface is the borrowing lifecycle controller contract. It
// owns every cross-entity rule: inventory reservation and release, the
// one-active-loan-per-user limit, and the single Active -> Returned
// transition.
type ServiceInterface interface {
	// CreateBorrowing reserves a copy and creates an active loan. On a
	// notification delivery failure the loan is already committed: the
	// response is returned alongside the error.
	CreateBorrowing(ctx context.Context, userID uuid.UUID, req model.CreateBorrowingRequest) (*model.BorrowingResponse, error)

	// ReturnBorrowing sets the actual return date and releases the copy.
	ReturnBorrowing(ctx context.Context, borrowingID uuid.UUID) (*model.BorrowingResponse, error)

	GetBorrowing(ctx context.Context, borrowingID uuid.UUID) (*model.BorrowingResponse, error)

	ListBorrowings(ctx context.Context, req model.ListBorrowingsRequest) (*model.ListBorrowingsResponse, error)
}
