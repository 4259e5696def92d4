package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-backend/internal/domains/borrowing/model"
)

// RepositoryInterface defines borrowing record persistence. It stores
// and loads records and checks the date-ordering invariant; the
// cross-entity rules (inventory, one active loan per user) belong to
// the lifecycle controller.
//
// Methods with a pgx.Tx parameter run inside a caller-owned transaction
// so the controller can combine them with inventory moves atomically.
type RepositoryInterface interface {
	// CreateTx inserts a new record. Fails with model.ErrInvalidDateRange
	// when the expected return date precedes the borrow date.
	CreateTx(ctx context.Context, tx pgx.Tx, borrowing *model.Borrowing) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.BorrowingWithBook, error)

	// GetForUpdateTx loads a record and locks its row, serializing
	// concurrent return attempts on the same loan.
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Borrowing, error)

	// CountActiveTx counts records with is_active = true for the user,
	// as seen by the caller's transaction.
	CountActiveTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)

	// MarkReturnedTx sets the actual return date exactly once. Fails with
	// model.ErrAlreadyReturned when it is already set.
	MarkReturnedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, returnedAt time.Time) (*model.Borrowing, error)

	List(ctx context.Context, filter model.ListBorrowingsRequest) ([]model.BorrowingWithBook, int, error)

	// ListOverdue returns active loans whose expected return date is
	// before asOf, joined with user and book info for reminders.
	ListOverdue(ctx context.Context, asOf time.Time) ([]model.OverdueLoan, error)
}
