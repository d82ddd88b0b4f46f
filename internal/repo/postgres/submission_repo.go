package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSubmissionNotFound = errors.New("submission not found")

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

// SubmissionRecord links a public channel post, its moderation-group mirror
// and the submitting user. The identity fields are a snapshot taken at
// submission time, never refreshed. Records survive moderation actions as an
// audit trail.
type SubmissionRecord struct {
	ID               int64
	UserID           int64
	Username         string
	FirstName        string
	LastName         string
	MessageType      string
	ContentText      string
	MediaFileID      string
	ChannelUsername  string
	ChannelMessageID int
	GroupMessageID   int
	CreatedAt        time.Time
}

// Sender is one distinct submitting user with the identity from their most
// recent submission.
type Sender struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
	LastAt    time.Time
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func (r *SubmissionRepo) Insert(ctx context.Context, rec SubmissionRecord) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if rec.UserID <= 0 || rec.MessageType == "" || rec.ChannelUsername == "" {
		return 0, fmt.Errorf("invalid submission payload")
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO submissions (
	user_id,
	username,
	first_name,
	last_name,
	message_type,
	content_text,
	media_file_id,
	channel_username,
	channel_message_id,
	group_message_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id
`,
		rec.UserID,
		rec.Username,
		rec.FirstName,
		rec.LastName,
		rec.MessageType,
		rec.ContentText,
		rec.MediaFileID,
		rec.ChannelUsername,
		rec.ChannelMessageID,
		rec.GroupMessageID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}

	return id, nil
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id int64) (SubmissionRecord, error) {
	if r.pool == nil {
		return SubmissionRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return SubmissionRecord{}, fmt.Errorf("invalid submission id")
	}

	rows, err := r.list(ctx, `
SELECT id, user_id, username, first_name, last_name, message_type, content_text,
	media_file_id, channel_username, channel_message_id, group_message_id, created_at
FROM submissions
WHERE id = $1
LIMIT 1
`, id)
	if err != nil {
		return SubmissionRecord{}, err
	}
	if len(rows) == 0 {
		return SubmissionRecord{}, ErrSubmissionNotFound
	}

	return rows[0], nil
}

func (r *SubmissionRepo) Delete(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return fmt.Errorf("invalid submission id")
	}

	if _, err := r.pool.Exec(ctx, `
DELETE FROM submissions WHERE id = $1
`, id); err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}

	return nil
}

// ListByUserID returns every submission by the user, oldest first.
func (r *SubmissionRepo) ListByUserID(ctx context.Context, userID int64) ([]SubmissionRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	return r.list(ctx, `
SELECT id, user_id, username, first_name, last_name, message_type, content_text,
	media_file_id, channel_username, channel_message_id, group_message_id, created_at
FROM submissions
WHERE user_id = $1
ORDER BY created_at ASC, id ASC
`, userID)
}

// ListByUsername matches the historical username snapshot case-insensitively,
// oldest first.
func (r *SubmissionRepo) ListByUsername(ctx context.Context, username string) ([]SubmissionRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	return r.list(ctx, `
SELECT id, user_id, username, first_name, last_name, message_type, content_text,
	media_file_id, channel_username, channel_message_id, group_message_id, created_at
FROM submissions
WHERE LOWER(username) = LOWER($1)
ORDER BY created_at ASC, id ASC
`, username)
}

// ListUniqueSenders returns one entry per distinct user, carrying that user's
// latest identity snapshot, ordered by most recent activity first.
func (r *SubmissionRepo) ListUniqueSenders(ctx context.Context) ([]Sender, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT user_id, username, first_name, last_name, last_at
FROM (
	SELECT DISTINCT ON (user_id)
		user_id, username, first_name, last_name, created_at AS last_at
	FROM submissions
	ORDER BY user_id, created_at DESC, id DESC
) latest
ORDER BY last_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list unique senders: %w", err)
	}
	defer rows.Close()

	var senders []Sender
	for rows.Next() {
		var s Sender
		if err := rows.Scan(&s.UserID, &s.Username, &s.FirstName, &s.LastName, &s.LastAt); err != nil {
			return nil, fmt.Errorf("scan sender row: %w", err)
		}
		senders = append(senders, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sender rows: %w", err)
	}

	return senders, nil
}

func (r *SubmissionRepo) Count(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM submissions
`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}

	return count, nil
}

func (r *SubmissionRepo) list(ctx context.Context, query string, args ...interface{}) ([]SubmissionRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var records []SubmissionRecord
	for rows.Next() {
		var rec SubmissionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Username,
			&rec.FirstName,
			&rec.LastName,
			&rec.MessageType,
			&rec.ContentText,
			&rec.MediaFileID,
			&rec.ChannelUsername,
			&rec.ChannelMessageID,
			&rec.GroupMessageID,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission rows: %w", err)
	}

	return records, nil
}
