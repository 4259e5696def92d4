package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxFunc is executed inside a transaction.
type TxFunc func(pgx.Tx) error

// TxRunner abstracts the transactional boundary so services can be
// tested without a live pool.
type TxRunner interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// TxManager runs functions inside pgx transactions on a shared pool.
type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx wraps fn in a transaction. Rollback happens automatically on
// error or panic; commit only when fn returns nil.
func (m *TxManager) WithinTx(ctx context.Context, fn TxFunc) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithinTxResult is WithinTx for functions that produce a value.
func WithinTxResult[T any](ctx context.Context, runner TxRunner, fn func(pgx.Tx) (T, error)) (T, error) {
	var result T

	err := runner.WithinTx(ctx, func(tx pgx.Tx) error {
		var fnErr error
		result, fnErr = fn(tx)
		return fnErr
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}

// IsSerializationFailure reports whether err is a transient Postgres
// conflict (serialization failure or deadlock). Operations hitting one
// are safe to retry from the top of the transaction.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
