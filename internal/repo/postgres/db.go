package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
	id                 BIGSERIAL PRIMARY KEY,
	user_id            BIGINT NOT NULL,
	username           TEXT NOT NULL DEFAULT '',
	first_name         TEXT NOT NULL DEFAULT '',
	last_name          TEXT NOT NULL DEFAULT '',
	message_type       TEXT NOT NULL,
	content_text       TEXT NOT NULL DEFAULT '',
	media_file_id      TEXT NOT NULL DEFAULT '',
	channel_username   TEXT NOT NULL,
	channel_message_id BIGINT NOT NULL,
	group_message_id   BIGINT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_submissions_user_id ON submissions (user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_submissions_username ON submissions (LOWER(username));

CREATE TABLE IF NOT EXISTS bans (
	user_id   BIGINT PRIMARY KEY,
	reason    TEXT NOT NULL DEFAULT '',
	banned_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MinConns = 0
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the tables on first boot. Safe to run on every start.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	return nil
}
