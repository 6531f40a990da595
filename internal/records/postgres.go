package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend keeps each collection as one jsonb document in the
// collections table. Updates lock the row for the length of a transaction.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if !validName(name) {
		return nil, ErrInvalidName
	}
	const query = `SELECT data FROM collections WHERE name = $1`

	var data []byte
	if err := b.pool.QueryRow(ctx, query, name).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return emptyArray, nil
		}
		return nil, err
	}
	return data, nil
}

func (b *PostgresBackend) Update(ctx context.Context, name string, fn func(current []byte) ([]byte, error)) error {
	if !validName(name) {
		return ErrInvalidName
	}

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const ensure = `
		INSERT INTO collections (name, data, updated_at)
		VALUES ($1, '[]'::jsonb, NOW())
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := tx.Exec(ctx, ensure, name); err != nil {
		return fmt.Errorf("ensure row: %w", err)
	}

	var current []byte
	if err := tx.QueryRow(ctx, `SELECT data FROM collections WHERE name = $1 FOR UPDATE`, name).Scan(&current); err != nil {
		return fmt.Errorf("lock row: %w", err)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	const update = `UPDATE collections SET data = $2::jsonb, updated_at = NOW() WHERE name = $1`
	if _, err := tx.Exec(ctx, update, name, string(next)); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return tx.Commit(ctx)
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}
