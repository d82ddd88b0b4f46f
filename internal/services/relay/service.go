package relay

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/nilufaroy/FerPs-Anon-bot-2/internal/infra/telegram"
	pgrepo "github.com/nilufaroy/FerPs-Anon-bot-2/internal/repo/postgres"
	"github.com/nilufaroy/FerPs-Anon-bot-2/internal/services/moderation"
)

type SettingStore interface {
	Get(ctx context.Context, key string) (string, error)
}

type BanStore interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
}

type SubmissionStore interface {
	Insert(ctx context.Context, rec pgrepo.SubmissionRecord) (int64, error)
}

type Publisher interface {
	CopyToChannel(ctx context.Context, channelUsername string, fromChatID int64, messageID int) (int, error)
	CopyToChat(ctx context.Context, chatID, fromChatID int64, messageID int, caption string) (int, error)
	SendHTML(ctx context.Context, chatID int64, text string) (int, error)
	SendText(ctx context.Context, chatID int64, text string) error
	SetReplyMarkup(ctx context.Context, chatID int64, messageID int, rows [][]telegram.Button) error
}

type RateGate interface {
	AllowSubmission(ctx context.Context, userID int64) (int64, bool, error)
}

type GroupResolver interface {
	GroupChatID(ctx context.Context) (int64, bool)
}

// Submission is one inbound private message, already classified.
type Submission struct {
	ChatID     int64
	MessageID  int
	UserID     int64
	Username   string
	FirstName  string
	LastName   string
	Classified telegram.Classified
}

// Service relays a private submission to the public channel anonymously and
// mirrors it to the admin group with moderation controls.
type Service struct {
	settings       SettingStore
	bans           BanStore
	submissions    SubmissionStore
	publisher      Publisher
	groups         GroupResolver
	rateGate       RateGate
	defaultChannel string
	logger         *zap.Logger
}

func NewService(
	settings SettingStore,
	bans BanStore,
	submissions SubmissionStore,
	publisher Publisher,
	groups GroupResolver,
	defaultChannel string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		settings:       settings,
		bans:           bans,
		submissions:    submissions,
		publisher:      publisher,
		groups:         groups,
		defaultChannel: defaultChannel,
		logger:         logger,
	}
}

// AttachRateGate enables the optional per-sender submission limiter.
func (s *Service) AttachRateGate(gate RateGate) {
	s.rateGate = gate
}

// Handle runs the intake workflow. Every user-visible outcome is delivered
// through the publisher; a returned error means an internal failure that was
// already answered with a fallback message.
//
// The steps are ordered gates: ban check, rate gate, group registered,
// channel copy, group mirror, record insert, controls, confirmation. If the
// group mirror fails after the channel copy succeeded, the channel post is
// deliberately left in place (no retraction) and the inconsistency is
// logged.
func (s *Service) Handle(ctx context.Context, sub Submission) error {
	if s.settings == nil || s.bans == nil || s.submissions == nil || s.publisher == nil || s.groups == nil {
		return fmt.Errorf("relay service dependencies are not configured")
	}

	banned, err := s.bans.IsBanned(ctx, sub.UserID)
	if err != nil {
		s.reply(ctx, sub.ChatID, "⚠️ Storage failure, please try again later.")
		return fmt.Errorf("check ban for user %d: %w", sub.UserID, err)
	}
	if banned {
		s.reply(ctx, sub.ChatID, "🚫 You are banned from submitting messages.")
		return nil
	}

	if s.rateGate != nil {
		retryAfter, allowed, gateErr := s.rateGate.AllowSubmission(ctx, sub.UserID)
		if gateErr != nil {
			// The gate is best-effort; a broken redis must not block intake.
			s.logger.Warn("submission rate gate unavailable", zap.Error(gateErr))
		} else if !allowed {
			s.reply(ctx, sub.ChatID, fmt.Sprintf("🐢 Too many submissions. Try again in %d seconds.", retryAfter))
			return nil
		}
	}

	groupID, ok := s.groups.GroupChatID(ctx)
	if !ok {
		s.reply(ctx, sub.ChatID, "⚠️ The admin group isn't set yet. Ask an admin to run /setgroup in the group.")
		return nil
	}

	channelUsername := s.channelUsername(ctx)

	channelMessageID, err := s.publisher.CopyToChannel(ctx, channelUsername, sub.ChatID, sub.MessageID)
	if err != nil {
		s.logger.Error("copy submission to channel",
			zap.String("channel", channelUsername),
			zap.Int64("user_id", sub.UserID),
			zap.Error(err),
		)
		s.reply(ctx, sub.ChatID, fmt.Sprintf("❌ Couldn't post to channel.\nChannel: %s\nError: %v", channelUsername, err))
		return nil
	}

	header := s.groupHeader(sub)
	var groupMessageID int
	if sub.Classified.Type == telegram.TypeText {
		groupMessageID, err = s.publisher.SendHTML(ctx, groupID, header)
	} else {
		groupMessageID, err = s.publisher.CopyToChat(ctx, groupID, sub.ChatID, sub.MessageID, header)
	}
	if err != nil {
		// The channel post stays up with no moderation record behind it.
		s.logger.Warn("group mirror failed after channel post, leaving orphaned channel message",
			zap.String("channel", channelUsername),
			zap.Int("channel_message_id", channelMessageID),
			zap.Error(err),
		)
		s.reply(ctx, sub.ChatID, "I couldn't post to the admin group. Is the bot in that group?")
		return nil
	}

	recordID, err := s.submissions.Insert(ctx, pgrepo.SubmissionRecord{
		UserID:           sub.UserID,
		Username:         sub.Username,
		FirstName:        sub.FirstName,
		LastName:         sub.LastName,
		MessageType:      sub.Classified.Type,
		ContentText:      sub.Classified.ContentText,
		MediaFileID:      sub.Classified.MediaFileID,
		ChannelUsername:  channelUsername,
		ChannelMessageID: channelMessageID,
		GroupMessageID:   groupMessageID,
	})
	if err != nil {
		s.reply(ctx, sub.ChatID, "⚠️ Storage failure, please try again later.")
		return fmt.Errorf("insert submission record: %w", err)
	}

	channelLink, _ := telegram.ChannelMessageLink(channelUsername, channelMessageID)
	controls := moderation.SubmissionControls(recordID, sub.UserID, channelLink)
	if err := s.publisher.SetReplyMarkup(ctx, groupID, groupMessageID, controls); err != nil {
		s.logger.Warn("attach moderation controls",
			zap.Int64("submission_id", recordID),
			zap.Error(err),
		)
	}

	s.reply(ctx, sub.ChatID, "✅ Your message was sent anonymously to the channel.")
	return nil
}

func (s *Service) channelUsername(ctx context.Context) string {
	value, err := s.settings.Get(ctx, pgrepo.KeyChannelUsername)
	if err != nil {
		if !errors.Is(err, pgrepo.ErrSettingNotFound) {
			s.logger.Warn("read channel setting", zap.Error(err))
		}
		return s.defaultChannel
	}
	return value
}

func (s *Service) groupHeader(sub Submission) string {
	name := strings.TrimSpace(strings.Join([]string{sub.FirstName, sub.LastName}, " "))
	if name == "" {
		name = "Unknown"
	}
	mention := fmt.Sprintf("<a href=\"%s\">%s</a>", telegram.UserProfileLink(sub.UserID), html.EscapeString(name))

	text := sub.Classified.ContentText
	if text == "" {
		text = "(no text)"
	}

	return fmt.Sprintf(
		"<b>New submission</b>\n👤 %s  (<code>%d</code>)\n🧾 Type: <code>%s</code>\n\n<b>Message:</b>\n%s",
		mention,
		sub.UserID,
		sub.Classified.Type,
		html.EscapeString(text),
	)
}

func (s *Service) reply(ctx context.Context, chatID int64, text string) {
	if err := s.publisher.SendText(ctx, chatID, text); err != nil {
		s.logger.Warn("reply to sender", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
