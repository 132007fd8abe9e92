package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectPostgres initializes the connection pool
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}

	// Try pinging to make sure it's valid
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}

	return pool, nil
}

var checkinsSchema = []string{`
CREATE TABLE IF NOT EXISTS checkins (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    contact       TEXT NOT NULL,
    is_new        BOOLEAN NOT NULL DEFAULT FALSE,
    guests        INTEGER NOT NULL DEFAULT 0 CHECK (guests >= 0),
    event_id      TEXT NOT NULL DEFAULT 'asistencia',
    checked_in_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS checkins_checked_in_at_idx ON checkins (checked_in_at DESC)`,
}

// EnsurePostgresSchema creates the checkins table when it does not exist.
func EnsurePostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range checkinsSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure checkins schema: %w", err)
		}
	}
	return nil
}
