package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresPool configures and returns a bounded PostgreSQL connection
// pool. Pool size and timeouts come from the connection URL; the pool is the
// process-wide shared resource every store call runs on.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the balances table if it does not exist. The
// (account_id, currency_id) primary key is what makes the store's upserts
// race-free.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `CREATE TABLE IF NOT EXISTS currency_balances (
        account_id  UUID          NOT NULL,
        currency_id VARCHAR(36)   NOT NULL,
        balance     NUMERIC(32,2) NOT NULL,
        PRIMARY KEY (account_id, currency_id)
    )`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create currency_balances: %w", err)
	}
	return nil
}
