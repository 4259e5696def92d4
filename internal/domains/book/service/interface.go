package service

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/book/model"
)

// ServiceInterface defines catalog business operations.
type ServiceInterface interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (*model.BookResponse, error)
	GetBook(ctx context.Context, id uuid.UUID) (*model.BookResponse, error)
	ListBooks(ctx context.Context, req model.ListBooksRequest) (*model.ListBooksResponse, error)
	UpdateBook(ctx context.Context, id uuid.UUID, req model.UpdateBookRequest) (*model.BookResponse, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
}
