package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/domains/book/repository"
)

type BookService struct {
	repo repository.RepositoryInterface
}

// NewService creates a new book service
func NewService(repo repository.RepositoryInterface) ServiceInterface {
	return &BookService{
		repo: repo,
	}
}

// CreateBook implements ServiceInterface.CreateBook
func (s *BookService) CreateBook(ctx context.Context, req model.CreateBookRequest) (*model.BookResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	book := model.Book{
		ID:        uuid.New(),
		Title:     req.Title,
		Author:    req.Author,
		Cover:     req.Cover,
		Inventory: req.Inventory,
		DailyFee:  req.DailyFee.Round(2),
	}

	if err := s.repo.Create(ctx, &book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	response := book.ToResponse()
	return &response, nil
}

// GetBook implements ServiceInterface.GetBook
func (s *BookService) GetBook(ctx context.Context, id uuid.UUID) (*model.BookResponse, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := book.ToResponse()
	return &response, nil
}

// ListBooks implements ServiceInterface.ListBooks
func (s *BookService) ListBooks(ctx context.Context, req model.ListBooksRequest) (*model.ListBooksResponse, error) {
	req.Normalize()

	books, totalItems, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	totalPages := (totalItems + req.Limit - 1) / req.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	return &model.ListBooksResponse{
		Items:      model.ToResponseList(books),
		TotalItems: totalItems,
		TotalPages: totalPages,
		Page:       req.Page,
		Limit:      req.Limit,
	}, nil
}

// UpdateBook implements ServiceInterface.UpdateBook. Partial update of
// catalog fields only; inventory moves exclusively through the
// borrowing lifecycle.
func (s *BookService) UpdateBook(ctx context.Context, id uuid.UUID, req model.UpdateBookRequest) (*model.BookResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		current.Title = *req.Title
	}
	if req.Author != nil {
		current.Author = *req.Author
	}
	if req.Cover != nil {
		current.Cover = *req.Cover
	}
	if req.DailyFee != nil {
		current.DailyFee = req.DailyFee.Round(2)
	}

	if err := s.repo.Update(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	response := current.ToResponse()
	return &response, nil
}

// DeleteBook implements ServiceInterface.DeleteBook
func (s *BookService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return nil
}
