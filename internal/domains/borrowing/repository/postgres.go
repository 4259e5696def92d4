package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/borrowing/model"
)

// postgresRepository implements RepositoryInterface
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{
		pool: pool,
	}
}

const borrowingColumns = "id, borrow_date, expected_return_date, actual_return_date, book_id, user_id, is_active"

func scanBorrowing(row pgx.Row, b *model.Borrowing) error {
	return row.Scan(
		&b.ID,
		&b.BorrowDate,
		&b.ExpectedReturnDate,
		&b.ActualReturnDate,
		&b.BookID,
		&b.UserID,
		&b.IsActive,
	)
}

// CreateTx implements RepositoryInterface.CreateTx
func (r *postgresRepository) CreateTx(ctx context.Context, tx pgx.Tx, borrowing *model.Borrowing) error {
	if borrowing.ExpectedReturnDate.Before(borrowing.BorrowDate) {
		return model.ErrInvalidDateRange
	}

	query := `
		INSERT INTO borrowings (id, borrow_date, expected_return_date, book_id, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING is_active
	`

	err := tx.QueryRow(ctx, query,
		borrowing.ID,
		borrowing.BorrowDate,
		borrowing.ExpectedReturnDate,
		borrowing.BookID,
		borrowing.UserID,
	).Scan(&borrowing.IsActive)

	if err != nil {
		return fmt.Errorf("failed to insert borrowing: %w", err)
	}

	return nil
}

// GetByID implements RepositoryInterface.GetByID
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.BorrowingWithBook, error) {
	query := `
		SELECT b.id, b.borrow_date, b.expected_return_date, b.actual_return_date,
		       b.book_id, b.user_id, b.is_active, bk.title AS book_title
		FROM borrowings b
		JOIN books bk ON bk.id = b.book_id
		WHERE b.id = $1
	`

	var row model.BorrowingWithBook
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&row.ID,
		&row.BorrowDate,
		&row.ExpectedReturnDate,
		&row.ActualReturnDate,
		&row.BookID,
		&row.UserID,
		&row.IsActive,
		&row.BookTitle,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewBorrowingNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get borrowing by id: %w", err)
	}

	return &row, nil
}

// GetForUpdateTx implements RepositoryInterface.GetForUpdateTx
func (r *postgresRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Borrowing, error) {
	query := fmt.Sprintf("SELECT %s FROM borrowings WHERE id = $1 FOR UPDATE", borrowingColumns)

	var borrowing model.Borrowing
	err := scanBorrowing(tx.QueryRow(ctx, query, id), &borrowing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewBorrowingNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to lock borrowing: %w", err)
	}

	return &borrowing, nil
}

// CountActiveTx implements RepositoryInterface.CountActiveTx
func (r *postgresRepository) CountActiveTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRow(ctx,
		"SELECT COUNT(*) FROM borrowings WHERE user_id = $1 AND is_active",
		userID,
	).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count active borrowings: %w", err)
	}

	return count, nil
}

// MarkReturnedTx implements RepositoryInterface.MarkReturnedTx. The
// guard on actual_return_date makes the write idempotence-safe even if
// the caller skipped the locked read.
func (r *postgresRepository) MarkReturnedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, returnedAt time.Time) (*model.Borrowing, error) {
	query := fmt.Sprintf(`
		UPDATE borrowings
		SET actual_return_date = $2
		WHERE id = $1 AND actual_return_date IS NULL
		RETURNING %s
	`, borrowingColumns)

	var borrowing model.Borrowing
	err := scanBorrowing(tx.QueryRow(ctx, query, id, returnedAt), &borrowing)
	if err == nil {
		return &borrowing, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to mark borrowing returned: %w", err)
	}

	var exists bool
	checkErr := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM borrowings WHERE id = $1)", id).Scan(&exists)
	if checkErr != nil {
		return nil, fmt.Errorf("failed to check borrowing existence: %w", checkErr)
	}

	if !exists {
		return nil, model.NewBorrowingNotFoundError(id)
	}
	return nil, model.ErrAlreadyReturned
}

// List implements RepositoryInterface.List
func (r *postgresRepository) List(ctx context.Context, filter model.ListBorrowingsRequest) ([]model.BorrowingWithBook, int, error) {
	queryBuilder := `
		SELECT b.id, b.borrow_date, b.expected_return_date, b.actual_return_date,
		       b.book_id, b.user_id, b.is_active, bk.title AS book_title
		FROM borrowings b
		JOIN books bk ON bk.id = b.book_id
		WHERE 1=1
	`
	countQuery := "SELECT COUNT(*) FROM borrowings b WHERE 1=1"

	args := []interface{}{}
	argCount := 1

	if filter.UserID != nil {
		cond := fmt.Sprintf(" AND b.user_id = $%d", argCount)
		queryBuilder += cond
		countQuery += cond
		args = append(args, *filter.UserID)
		argCount++
	}

	if filter.IsActive != nil {
		cond := fmt.Sprintf(" AND b.is_active = $%d", argCount)
		queryBuilder += cond
		countQuery += cond
		args = append(args, *filter.IsActive)
		argCount++
	}

	var totalCount int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count borrowings: %w", err)
	}

	queryBuilder += " ORDER BY b.borrow_date DESC, b.id ASC"
	offset := (filter.Page - 1) * filter.Limit
	queryBuilder += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filter.Limit, offset)

	rows, err := r.pool.Query(ctx, queryBuilder, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list borrowings: %w", err)
	}
	defer rows.Close()

	borrowings := make([]model.BorrowingWithBook, 0, filter.Limit)
	for rows.Next() {
		var row model.BorrowingWithBook
		err := rows.Scan(
			&row.ID,
			&row.BorrowDate,
			&row.ExpectedReturnDate,
			&row.ActualReturnDate,
			&row.BookID,
			&row.UserID,
			&row.IsActive,
			&row.BookTitle,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan borrowing row: %w", err)
		}
		borrowings = append(borrowings, row)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating borrowing rows: %w", err)
	}

	return borrowings, totalCount, nil
}

// ListOverdue implements RepositoryInterface.ListOverdue
func (r *postgresRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]model.OverdueLoan, error) {
	query := `
		SELECT b.id, b.borrow_date, b.expected_return_date, b.actual_return_date,
		       b.book_id, b.user_id, b.is_active,
		       bk.title AS book_title, u.email AS user_email
		FROM borrowings b
		JOIN books bk ON bk.id = b.book_id
		JOIN users u ON u.id = b.user_id
		WHERE b.is_active AND b.expected_return_date < $1
		ORDER BY b.expected_return_date ASC
	`

	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue borrowings: %w", err)
	}
	defer rows.Close()

	loans := make([]model.OverdueLoan, 0, 16)
	for rows.Next() {
		var loan model.OverdueLoan
		err := rows.Scan(
			&loan.ID,
			&loan.BorrowDate,
			&loan.ExpectedReturnDate,
			&loan.ActualReturnDate,
			&loan.BookID,
			&loan.UserID,
			&loan.IsActive,
			&loan.BookTitle,
			&loan.UserEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overdue loan: %w", err)
		}
		loans = append(loans, loan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overdue loans: %w", err)
	}

	return loans, nil
}
