package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/book/model"
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

const bookColumns = "id, title, author, cover, inventory, daily_fee, created_at, updated_at"

func scanBook(row pgx.Row, book *model.Book) error {
	return row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Cover,
		&book.Inventory,
		&book.DailyFee,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
}

// Create implements RepositoryInterface.Create
func (r *postgresRepository) Create(ctx context.Context, book *model.Book) error {
	query := `
		INSERT INTO books (id, title, author, cover, inventory, daily_fee)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.Cover,
		book.Inventory,
		book.DailyFee,
	).Scan(&book.CreatedAt, &book.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	return nil
}

// GetByID implements RepositoryInterface.GetByID
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	query := fmt.Sprintf("SELECT %s FROM books WHERE id = $1", bookColumns)

	var book model.Book
	err := scanBook(r.pool.QueryRow(ctx, query, id), &book)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewBookNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get book by id: %w", err)
	}

	return &book, nil
}

// List implements RepositoryInterface.List
func (r *postgresRepository) List(ctx context.Context, filter model.ListBooksRequest) ([]model.Book, int, error) {
	var totalCount int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM books").Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM books
		ORDER BY title ASC, id ASC
		LIMIT $1 OFFSET $2
	`, bookColumns)

	offset := (filter.Page - 1) * filter.Limit
	rows, err := r.pool.Query(ctx, query, filter.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := make([]model.Book, 0, filter.Limit)
	for rows.Next() {
		var book model.Book
		if err := scanBook(rows, &book); err != nil {
			return nil, 0, fmt.Errorf("failed to scan book row: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating book rows: %w", err)
	}

	return books, totalCount, nil
}

// Update implements RepositoryInterface.Update. Inventory is not
// touched here; it only moves through ReserveCopy/ReleaseCopy.
func (r *postgresRepository) Update(ctx context.Context, book *model.Book) error {
	query := `
		UPDATE books
		SET title = $2, author = $3, cover = $4, daily_fee = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING inventory, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.Cover,
		book.DailyFee,
	).Scan(&book.Inventory, &book.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewBookNotFoundError(book.ID)
		}
		return fmt.Errorf("failed to update book: %w", err)
	}

	return nil
}

// Delete implements RepositoryInterface.Delete
func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM books WHERE id = $1", id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return model.ErrBookHasBorrowings
		}
		return fmt.Errorf("failed to delete book: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.NewBookNotFoundError(id)
	}

	return nil
}

// ReserveCopy implements RepositoryInterface.ReserveCopy. The
// conditional update is the atomic check-and-decrement: under
// concurrent callers Postgres serializes writers on the row, so the
// inventory can never go negative.
func (r *postgresRepository) ReserveCopy(ctx context.Context, tx pgx.Tx, bookID uuid.UUID) (*model.Book, error) {
	query := fmt.Sprintf(`
		UPDATE books
		SET inventory = inventory - 1, updated_at = NOW()
		WHERE id = $1 AND inventory > 0
		RETURNING %s
	`, bookColumns)

	var book model.Book
	err := scanBook(tx.QueryRow(ctx, query, bookID), &book)
	if err == nil {
		return &book, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to reserve copy: %w", err)
	}

	// No rows means either the book is missing or has zero copies.
	var exists bool
	checkErr := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)", bookID).Scan(&exists)
	if checkErr != nil {
		return nil, fmt.Errorf("failed to check book existence: %w", checkErr)
	}

	if !exists {
		return nil, model.NewBookNotFoundError(bookID)
	}
	return nil, model.NewOutOfStockError(bookID)
}

// ReleaseCopy implements RepositoryInterface.ReleaseCopy
func (r *postgresRepository) ReleaseCopy(ctx context.Context, tx pgx.Tx, bookID uuid.UUID) error {
	result, err := tx.Exec(ctx,
		"UPDATE books SET inventory = inventory + 1, updated_at = NOW() WHERE id = $1",
		bookID,
	)
	if err != nil {
		return fmt.Errorf("failed to release copy: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.NewBookNotFoundError(bookID)
	}

	return nil
}
