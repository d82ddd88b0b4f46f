package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BanRepo struct {
	pool *pgxpool.Pool
}

func NewBanRepo(pool *pgxpool.Pool) *BanRepo {
	return &BanRepo{pool: pool}
}

func (r *BanRepo) IsBanned(ctx context.Context, userID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return false, fmt.Errorf("invalid user id")
	}

	var banned bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM bans WHERE user_id = $1)
`, userID).Scan(&banned); err != nil {
		return false, fmt.Errorf("check ban: %w", err)
	}

	return banned, nil
}

// Ban is idempotent: banning an already banned user keeps the original
// reason and timestamp.
func (r *BanRepo) Ban(ctx context.Context, userID int64, reason string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO bans (user_id, reason)
VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING
`, userID, reason); err != nil {
		return fmt.Errorf("ban user %d: %w", userID, err)
	}

	return nil
}

func (r *BanRepo) Unban(ctx context.Context, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	if _, err := r.pool.Exec(ctx, `
DELETE FROM bans WHERE user_id = $1
`, userID); err != nil {
		return fmt.Errorf("unban user %d: %w", userID, err)
	}

	return nil
}

func (r *BanRepo) Count(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM bans
`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count bans: %w", err)
	}

	return count, nil
}
