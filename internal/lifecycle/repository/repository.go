// Package repository persists the lifecycle engine's records in Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"

	"legal_intake_backend/platform/apperr"
	"legal_intake_backend/platform/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgForeignKeyViolation = "23503"

// pgxNoRows lets Exec-based updates report a missing row the same way
// QueryRow-based reads do.
var pgxNoRows = pgx.ErrNoRows

// PgRepository is the Postgres Repository. The zero transaction form runs
// each call on the pool; WithinTx hands out a copy bound to one pgx.Tx.
type PgRepository struct {
	pool db.Pool
	q    db.Querier
	inTx bool
}

// New creates a repository over pool.
func New(pool db.Pool) *PgRepository {
	return &PgRepository{pool: pool, q: pool}
}

// WithinTx runs fn inside a READ COMMITTED transaction. Nested calls reuse
// the outer transaction.
func (r *PgRepository) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&PgRepository{pool: r.pool, q: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// notFound maps pgx.ErrNoRows to a typed NotFound error.
func notFound(err error, what, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(what + " not found").WithOp(op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// collect drains rows with scan.
func collect[T any](rows pgx.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

var _ Repository = (*PgRepository)(nil)
