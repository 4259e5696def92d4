package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-backend/internal/domains/book/model"
)

// RepositoryInterface defines book catalog data access. The reserve and
// release operations run inside a caller-owned transaction so the
// borrowing controller can combine them with record writes atomically.
type RepositoryInterface interface {
	Create(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context, filter model.ListBooksRequest) ([]model.Book, int, error)
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ReserveCopy atomically checks inventory > 0 and decrements it in a
	// single statement. Returns the post-decrement book row. Fails with
	// model.ErrOutOfStock when no copies are available and
	// model.ErrBookNotFound when the book does not exist.
	ReserveCopy(ctx context.Context, tx pgx.Tx, bookID uuid.UUID) (*model.Book, error)

	// ReleaseCopy atomically increments inventory by one.
	ReleaseCopy(ctx context.Context, tx pgx.Tx, bookID uuid.UUID) error
}
