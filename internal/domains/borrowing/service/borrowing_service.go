package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	bookModel "library-backend/internal/domains/book/model"
	bookRepo "library-backend/internal/domains/book/repository"
	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/borrowing/repository"
	userRepo "library-backend/internal/domains/user/repository"
	"library-backend/pkg/database"
)

// Bounded retries for transient serialization conflicts. Retrying a
// sub-step is never safe; the whole transaction restarts.
const (
	maxTxAttempts = 3
	retryBackoff  = 25 * time.Millisecond
)

type BorrowingService struct {
	tx         database.TxRunner
	borrowings repository.RepositoryInterface
	books      bookRepo.RepositoryInterface
	users      userRepo.RepositoryInterface
	notifier   Notifier

	// now is swapped in tests to pin the borrow date.
	now func() time.Time
}

// NewService creates the borrowing lifecycle controller.
func NewService(
	tx database.TxRunner,
	borrowings repository.RepositoryInterface,
	books bookRepo.RepositoryInterface,
	users userRepo.RepositoryInterface,
	notifier Notifier,
) ServiceInterface {
	return &BorrowingService{
		tx:         tx,
		borrowings: borrowings,
		books:      books,
		users:      users,
		notifier:   notifier,
		now:        time.Now,
	}
}

type createOutcome struct {
	borrowing *model.Borrowing
	book      *bookModel.Book
}

// CreateBorrowing implements ServiceInterface.CreateBorrowing.
//
// Inside one transaction: the user row is locked, the active-loan count
// is checked against that lock, one copy is reserved (atomic
// check-and-decrement), and the record is inserted. Two concurrent
// creations for the same user serialize on the user lock so at most one
// commits; two for the same book serialize on the inventory update so
// the count never goes below zero.
func (s *BorrowingService) CreateBorrowing(ctx context.Context, userID uuid.UUID, req model.CreateBorrowingRequest) (*model.BorrowingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	expected, err := req.ParsedExpectedReturnDate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidDateRange, err)
	}

	borrowDate := model.DateOnly(s.now())
	if expected.Before(borrowDate) {
		return nil, model.ErrInvalidDateRange
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var outcome *createOutcome
	err = s.withConflictRetry(ctx, "create borrowing", func() error {
		var txErr error
		outcome, txErr = database.WithinTxResult(ctx, s.tx, func(tx pgx.Tx) (*createOutcome, error) {
			if err := s.users.Lock(ctx, tx, userID); err != nil {
				return nil, err
			}

			active, err := s.borrowings.CountActiveTx(ctx, tx, userID)
			if err != nil {
				return nil, err
			}
			if active > 0 {
				return nil, model.ErrActiveBorrowingExists
			}

			book, err := s.books.ReserveCopy(ctx, tx, req.BookID)
			if err != nil {
				return nil, err
			}

			borrowing := &model.Borrowing{
				ID:                 uuid.New(),
				BorrowDate:         borrowDate,
				ExpectedReturnDate: expected,
				BookID:             req.BookID,
				UserID:             userID,
			}
			if err := s.borrowings.CreateTx(ctx, tx, borrowing); err != nil {
				return nil, err
			}

			return &createOutcome{borrowing: borrowing, book: book}, nil
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}

	response := toResponse(outcome.borrowing, outcome.book.Title)

	// The loan is committed at this point. A delivery failure still
	// surfaces as an operation error; the response travels with it so
	// callers can tell the loan exists.
	text := fmt.Sprintf(
		"%s borrowed %q, expected return by %s",
		user.Email,
		outcome.book.Title,
		expected.Format(time.DateOnly),
	)
	if err := s.notifier.Notify(ctx, text); err != nil {
		log.Error().
			Err(err).
			Str("borrowing_id", outcome.borrowing.ID.String()).
			Msg("borrowing committed but notification failed")
		return &response, fmt.Errorf("borrowing %s was created but the notification failed: %w", outcome.borrowing.ID, err)
	}

	return &response, nil
}

// ReturnBorrowing implements ServiceInterface.ReturnBorrowing.
//
// The record row is locked before the already-returned check, so a
// double return can not release two copies: the loser of the lock race
// observes the set return date and fails with ErrAlreadyReturned.
func (s *BorrowingService) ReturnBorrowing(ctx context.Context, borrowingID uuid.UUID) (*model.BorrowingResponse, error) {
	var returned *model.Borrowing

	err := s.withConflictRetry(ctx, "return borrowing", func() error {
		var txErr error
		returned, txErr = database.WithinTxResult(ctx, s.tx, func(tx pgx.Tx) (*model.Borrowing, error) {
			current, err := s.borrowings.GetForUpdateTx(ctx, tx, borrowingID)
			if err != nil {
				return nil, err
			}
			if current.ActualReturnDate != nil {
				return nil, model.ErrAlreadyReturned
			}

			updated, err := s.borrowings.MarkReturnedTx(ctx, tx, borrowingID, model.DateOnly(s.now()))
			if err != nil {
				return nil, err
			}

			if err := s.books.ReleaseCopy(ctx, tx, current.BookID); err != nil {
				return nil, err
			}

			return updated, nil
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}

	// No notification on return; only loan creation notifies.
	book, err := s.books.GetByID(ctx, returned.BookID)
	if err != nil {
		return nil, err
	}

	response := toResponse(returned, book.Title)
	return &response, nil
}

// GetBorrowing implements ServiceInterface.GetBorrowing
func (s *BorrowingService) GetBorrowing(ctx context.Context, borrowingID uuid.UUID) (*model.BorrowingResponse, error) {
	row, err := s.borrowings.GetByID(ctx, borrowingID)
	if err != nil {
		return nil, err
	}

	response := row.ToResponse()
	return &response, nil
}

// ListBorrowings implements ServiceInterface.ListBorrowings. The read
// path has no business rules; it passes through to the repository.
func (s *BorrowingService) ListBorrowings(ctx context.Context, req model.ListBorrowingsRequest) (*model.ListBorrowingsResponse, error) {
	req.Normalize()

	rows, totalItems, err := s.borrowings.List(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list borrowings: %w", err)
	}

	totalPages := (totalItems + req.Limit - 1) / req.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	return &model.ListBorrowingsResponse{
		Items:      model.ToResponseList(rows),
		TotalItems: totalItems,
		TotalPages: totalPages,
		Page:       req.Page,
		Limit:      req.Limit,
	}, nil
}

// withConflictRetry reruns op when the transaction aborts with a
// Postgres serialization failure or deadlock. Business-rule errors
// propagate immediately.
func (s *BorrowingService) withConflictRetry(ctx context.Context, opName string, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !database.IsSerializationFailure(err) {
			return err
		}

		lastErr = err
		log.Warn().
			Err(err).
			Str("operation", opName).
			Int("attempt", attempt).
			Msg("transaction conflict, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}

	return fmt.Errorf("%w: %v", model.ErrTransactionConflict, lastErr)
}

func toResponse(b *model.Borrowing, bookTitle string) model.BorrowingResponse {
	row := model.BorrowingWithBook{Borrowing: *b, BookTitle: bookTitle}
	return row.ToResponse()
}
