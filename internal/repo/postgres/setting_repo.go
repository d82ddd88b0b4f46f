package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Persisted setting keys. Settings are read fresh on every use so an admin
// reconfiguration takes effect immediately.
const (
	KeyChannelUsername = "CHANNEL_USERNAME"
	KeyGroupChatID     = "GROUP_CHAT_ID"
)

var ErrSettingNotFound = errors.New("setting not found")

type SettingRepo struct {
	pool *pgxpool.Pool
}

func NewSettingRepo(pool *pgxpool.Pool) *SettingRepo {
	return &SettingRepo{pool: pool}
}

func (r *SettingRepo) Get(ctx context.Context, key string) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}
	if key == "" {
		return "", fmt.Errorf("setting key is required")
	}

	var value string
	err := r.pool.QueryRow(ctx, `
SELECT value FROM settings WHERE key = $1
`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}

	return value, nil
}

func (r *SettingRepo) Set(ctx context.Context, key, value string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if key == "" {
		return fmt.Errorf("setting key is required")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO settings (key, value)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
`, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}

	return nil
}

// SeedDefault writes the value only when the key is absent, so an
// admin-chosen value survives restarts.
func (r *SettingRepo) SeedDefault(ctx context.Context, key, value string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if key == "" {
		return fmt.Errorf("setting key is required")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO settings (key, value)
VALUES ($1, $2)
ON CONFLICT (key) DO NOTHING
`, key, value); err != nil {
		return fmt.Errorf("seed setting %s: %w", key, err)
	}

	return nil
}
