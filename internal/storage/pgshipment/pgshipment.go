// Package pgshipment provides a PostgreSQL shipment repository backed by pgx.
package pgshipment

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Storage wraps a pgx connection pool.
type Storage struct {
	db *pgxpool.Pool
}

// New connects to PostgreSQL and verifies the connection.
func New(ctx context.Context, dsn string) (*Storage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping")
	}
	return &Storage{db: pool}, nil
}

// NewWithPool wraps an existing pool; the caller owns its lifecycle.
func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{db: pool}
}

// Close releases the connection pool.
func (s *Storage) Close() {
	s.db.Close()
}
