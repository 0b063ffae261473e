// Package postgres stores dashboard transaction records in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"index-dashboard/internal/observability"
	"index-dashboard/internal/storage"
)

const (
	applicationName = "index-dashboard"

	// SQLSTATE unique_violation.
	codeUniqueViolation = "23505"
)

// Pool is the shared pgx connection pool.
type Pool struct {
	*pgxpool.Pool
}

// NewPool parses dsn, connects and pings the server.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// Close releases all connections.
func (p *Pool) Close() {
	p.Pool.Close()
}

// storageError maps driver errors onto storage sentinels. It returns nil
// when err has no storage meaning.
func storageError(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return storage.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation:
		return storage.ErrDuplicateKey
	}
	return nil
}

// observe records query latency. Missing rows and duplicates are caller
// errors, not database failures.
func observe(operation string, start time.Time, err error) {
	if storageError(err) != nil {
		err = nil
	}
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
}
