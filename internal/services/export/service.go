package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	pgrepo "github.com/nilufaroy/FerPs-Anon-bot-2/internal/repo/postgres"
)

var ErrNoSubmissions = errors.New("no submissions found")

type SubmissionStore interface {
	ListByUserID(ctx context.Context, userID int64) ([]pgrepo.SubmissionRecord, error)
	ListByUsername(ctx context.Context, username string) ([]pgrepo.SubmissionRecord, error)
}

type FileFetcher interface {
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

type DocumentSender interface {
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
}

// Service assembles a user's full submission history into an .xlsx artifact
// with embedded media thumbnails and delivers it to the requesting admin.
type Service struct {
	submissions SubmissionStore
	files       FileFetcher
	sender      DocumentSender
	logger      *zap.Logger
}

func NewService(submissions SubmissionStore, files FileFetcher, sender DocumentSender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		submissions: submissions,
		files:       files,
		sender:      sender,
		logger:      logger,
	}
}

// Export resolves the identifier (numeric user id or @handle), builds the
// spreadsheet and sends it to requesterChatID. The temp artifact is removed
// regardless of delivery outcome.
func (s *Service) Export(ctx context.Context, requesterChatID int64, identifier string) error {
	if s.submissions == nil || s.sender == nil {
		return fmt.Errorf("export service dependencies are not configured")
	}

	records, label, err := s.lookup(ctx, identifier)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrNoSubmissions
	}

	dir := filepath.Join(os.TempDir(), "anonbot-export-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create export scratch dir: %w", err)
	}
	defer func() {
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			s.logger.Warn("remove export scratch dir", zap.Error(removeErr))
		}
	}()

	path := filepath.Join(dir, fmt.Sprintf("info_%s.xlsx", strings.TrimPrefix(label, "@")))
	if err := s.writeWorkbook(ctx, records, path); err != nil {
		return err
	}

	caption := fmt.Sprintf("Submissions for %s (total: %d)", label, len(records))
	if err := s.sender.SendDocument(ctx, requesterChatID, path, caption); err != nil {
		return fmt.Errorf("deliver export: %w", err)
	}

	return nil
}

func (s *Service) lookup(ctx context.Context, identifier string) ([]pgrepo.SubmissionRecord, string, error) {
	token := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(identifier), "@"))
	if token == "" {
		return nil, "", fmt.Errorf("empty export identifier")
	}

	if userID, err := strconv.ParseInt(token, 10, 64); err == nil && userID > 0 {
		records, listErr := s.submissions.ListByUserID(ctx, userID)
		if listErr != nil {
			return nil, "", fmt.Errorf("list submissions by id: %w", listErr)
		}
		return records, token, nil
	}

	records, err := s.submissions.ListByUsername(ctx, token)
	if err != nil {
		return nil, "", fmt.Errorf("list submissions by username: %w", err)
	}
	return records, "@" + token, nil
}
