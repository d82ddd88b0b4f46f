package moderation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nilufaroy/FerPs-Anon-bot-2/internal/infra/telegram"
	pgrepo "github.com/nilufaroy/FerPs-Anon-bot-2/internal/repo/postgres"
)

const banReason = "Admin ban"

type SubmissionStore interface {
	GetByID(ctx context.Context, id int64) (pgrepo.SubmissionRecord, error)
}

type BanStore interface {
	Ban(ctx context.Context, userID int64, reason string) error
}

type Remote interface {
	DeleteChannelMessage(ctx context.Context, channelUsername string, messageID int) error
	SetReplyMarkup(ctx context.Context, chatID int64, messageID int, rows [][]telegram.Button) error
	SendText(ctx context.Context, chatID int64, text string) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

type Authorizer interface {
	IsStaticAdmin(userID int64) bool
	IsGroupAdmin(ctx context.Context, chatID, userID int64) bool
	GroupChatID(ctx context.Context) (int64, bool)
}

// Callback is one admin button press as delivered by the webhook.
type Callback struct {
	CallbackID string
	ChatID     int64
	MessageID  int
	UserID     int64
	Data       string
}

type Service struct {
	submissions SubmissionStore
	bans        BanStore
	remote      Remote
	auth        Authorizer
	logger      *zap.Logger
}

func NewService(submissions SubmissionStore, bans BanStore, remote Remote, auth Authorizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		submissions: submissions,
		bans:        bans,
		remote:      remote,
		auth:        auth,
		logger:      logger,
	}
}

// HandleCallback processes one moderation button press. Local state changes
// (the ban insert) always complete even when the remote side effects fail;
// remote failures degrade to a brief acknowledgment, never a hard error to
// the admin.
func (s *Service) HandleCallback(ctx context.Context, cb Callback) error {
	if s.submissions == nil || s.bans == nil || s.remote == nil || s.auth == nil {
		return fmt.Errorf("moderation service dependencies are not configured")
	}

	action, err := ParseAction(cb.Data)
	if err != nil {
		// Bad payloads are a no-op toward the admin.
		s.logger.Warn("unparseable callback payload", zap.String("data", cb.Data), zap.Error(err))
		return s.remote.AnswerCallback(ctx, cb.CallbackID, "", false)
	}

	record, err := s.submissions.GetByID(ctx, action.SubmissionID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrSubmissionNotFound) {
			if markupErr := s.remote.SetReplyMarkup(ctx, cb.ChatID, cb.MessageID, nil); markupErr != nil {
				s.logger.Warn("clear controls for missing record", zap.Error(markupErr))
			}
			return s.remote.AnswerCallback(ctx, cb.CallbackID, "", false)
		}
		return fmt.Errorf("load submission %d: %w", action.SubmissionID, err)
	}

	if !s.authorized(ctx, cb) {
		return s.remote.AnswerCallback(ctx, cb.CallbackID, "Admins only.", true)
	}

	switch action.Kind {
	case ActionDelete:
		return s.handleDelete(ctx, cb, record)
	case ActionBan:
		return s.handleBan(ctx, cb, record)
	default:
		return s.remote.AnswerCallback(ctx, cb.CallbackID, "", false)
	}
}

// authorized: static allowlist always wins; group role only counts when the
// press happened inside the registered admin group.
func (s *Service) authorized(ctx context.Context, cb Callback) bool {
	if s.auth.IsStaticAdmin(cb.UserID) {
		return true
	}

	groupID, ok := s.auth.GroupChatID(ctx)
	if !ok || cb.ChatID != groupID {
		return false
	}

	return s.auth.IsGroupAdmin(ctx, groupID, cb.UserID)
}

func (s *Service) handleDelete(ctx context.Context, cb Callback, record pgrepo.SubmissionRecord) error {
	notice := "Deleted in channel"
	if err := s.remote.DeleteChannelMessage(ctx, record.ChannelUsername, record.ChannelMessageID); err != nil {
		// Already-gone is success from the moderator's point of view.
		s.logger.Warn("delete channel message",
			zap.Int64("submission_id", record.ID),
			zap.Error(err),
		)
		notice = "Couldn't delete (maybe already deleted)"
	}

	if err := s.remote.SetReplyMarkup(ctx, cb.ChatID, cb.MessageID, ControlsAfterDelete(record.ID, record.UserID)); err != nil {
		s.logger.Warn("reduce controls after delete", zap.Error(err))
	}

	return s.remote.AnswerCallback(ctx, cb.CallbackID, notice, false)
}

func (s *Service) handleBan(ctx context.Context, cb Callback, record pgrepo.SubmissionRecord) error {
	if err := s.bans.Ban(ctx, record.UserID, banReason); err != nil {
		if ackErr := s.remote.AnswerCallback(ctx, cb.CallbackID, "Storage failure, try again.", true); ackErr != nil {
			s.logger.Warn("answer ban failure callback", zap.Error(ackErr))
		}
		return fmt.Errorf("ban user %d: %w", record.UserID, err)
	}

	if err := s.remote.DeleteChannelMessage(ctx, record.ChannelUsername, record.ChannelMessageID); err != nil {
		s.logger.Warn("delete channel message on ban",
			zap.Int64("submission_id", record.ID),
			zap.Error(err),
		)
	}
	if err := s.remote.SendText(ctx, record.UserID, "🚫 You have been banned from submitting messages to this bot."); err != nil {
		s.logger.Warn("notify banned user", zap.Int64("user_id", record.UserID), zap.Error(err))
	}
	if err := s.remote.SetReplyMarkup(ctx, cb.ChatID, cb.MessageID, nil); err != nil {
		s.logger.Warn("clear controls after ban", zap.Error(err))
	}

	return s.remote.AnswerCallback(ctx, cb.CallbackID, "User banned & post removed", false)
}
