package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-backend/internal/domains/user/model"
)

// RepositoryInterface defines user data access.
type RepositoryInterface interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Lock takes a row-level lock on the user inside the caller's
	// transaction. The borrowing controller locks the user before the
	// active-loan count so concurrent loan creations for the same user
	// serialize on this row.
	Lock(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}
