package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Chat member roles that carry moderation authority.
const (
	RoleAdministrator = "administrator"
	RoleCreator       = "creator"
)

type Bot struct {
	api        *tgbotapi.BotAPI
	httpClient *http.Client
}

// Button is a single inline control. CallbackData and URL are mutually
// exclusive; URL wins when both are set.
type Button struct {
	Label        string
	CallbackData string
	URL          string
}

func NewBot(token string) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{
		api: api,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// RegisterWebhook points Telegram at url, retrying with exponential backoff
// up to maxAttempts before giving up. Pending updates are dropped so a
// restart does not replay stale traffic.
func (b *Bot) RegisterWebhook(ctx context.Context, url string, maxAttempts int) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("webhook url is required")
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	wh.DropPendingUpdates = true

	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if _, lastErr = b.api.Request(wh); lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return fmt.Errorf("register webhook after %d attempts: %w", maxAttempts, lastErr)
}

// CopyToChannel republishes a message into a public channel by @username.
// The copy carries no forward metadata, so the sender stays anonymous.
func (b *Bot) CopyToChannel(ctx context.Context, channelUsername string, fromChatID int64, messageID int) (int, error) {
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}
	if !strings.HasPrefix(channelUsername, "@") {
		return 0, fmt.Errorf("channel username must start with @, got %q", channelUsername)
	}

	cfg := tgbotapi.CopyMessageConfig{
		BaseChat:   tgbotapi.BaseChat{ChannelUsername: channelUsername},
		FromChatID: fromChatID,
		MessageID:  messageID,
	}
	res, err := b.api.CopyMessage(cfg)
	if err != nil {
		return 0, fmt.Errorf("copy message to channel %s: %w", channelUsername, err)
	}

	_ = ctx
	return res.MessageID, nil
}

// CopyToChat republishes a message into a chat, optionally replacing the
// caption (HTML). Used for the moderation-group mirror of media submissions.
func (b *Bot) CopyToChat(ctx context.Context, chatID, fromChatID int64, messageID int, caption string) (int, error) {
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return 0, fmt.Errorf("chat id is required")
	}

	cfg := tgbotapi.CopyMessageConfig{
		BaseChat:   tgbotapi.BaseChat{ChatID: chatID},
		FromChatID: fromChatID,
		MessageID:  messageID,
	}
	if caption != "" {
		cfg.Caption = caption
		cfg.ParseMode = tgbotapi.ModeHTML
	}
	res, err := b.api.CopyMessage(cfg)
	if err != nil {
		return 0, fmt.Errorf("copy message to chat %d: %w", chatID, err)
	}

	_ = ctx
	return res.MessageID, nil
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := b.send(ctx, chatID, text, "")
	return err
}

func (b *Bot) SendHTML(ctx context.Context, chatID int64, text string) (int, error) {
	return b.send(ctx, chatID, text, tgbotapi.ModeHTML)
}

func (b *Bot) send(ctx context.Context, chatID int64, text, parseMode string) (int, error) {
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return 0, fmt.Errorf("chat id is required")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	return sent.MessageID, nil
}

// SetReplyMarkup replaces the inline controls on a message. An empty rows
// slice removes the keyboard entirely.
func (b *Bot) SetReplyMarkup(ctx context.Context, chatID int64, messageID int, rows [][]Button) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	cfg := tgbotapi.EditMessageReplyMarkupConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:    chatID,
			MessageID: messageID,
		},
	}
	if len(rows) > 0 {
		markup := buildMarkup(rows)
		cfg.BaseEdit.ReplyMarkup = &markup
	}
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("edit reply markup: %w", err)
	}

	_ = ctx
	return nil
}

func buildMarkup(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			if btn.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(btn.Label, btn.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.CallbackData))
		}
		keyboard = append(keyboard, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// DeleteChannelMessage removes a previously copied post from a public
// channel. "Message to delete not found" comes back as an error and is the
// caller's call to tolerate.
func (b *Bot) DeleteChannelMessage(ctx context.Context, channelUsername string, messageID int) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	cfg := tgbotapi.DeleteMessageConfig{
		ChannelUsername: channelUsername,
		MessageID:       messageID,
	}
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("delete channel message %d in %s: %w", messageID, channelUsername, err)
	}

	_ = ctx
	return nil
}

// ChatMemberStatus reports the requester's role inside a chat. Callers treat
// any error as "not an admin".
func (b *Bot) ChatMemberStatus(ctx context.Context, chatID, userID int64) (string, error) {
	if b == nil || b.api == nil {
		return "", fmt.Errorf("telegram bot is not initialized")
	}

	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("get chat member: %w", err)
	}

	_ = ctx
	return member.Status, nil
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(callbackID) == "" {
		return nil
	}

	cfg := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	_ = ctx
	return nil
}

// DownloadFile fetches a file from Telegram's file store by its opaque id.
// Returns the raw bytes and the file extension (with leading dot).
func (b *Bot) DownloadFile(ctx context.Context, fileID string) ([]byte, string, error) {
	if b == nil || b.api == nil {
		return nil, "", fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, "", fmt.Errorf("file id is required")
	}

	tgFile, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("get telegram file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tgFile.Link(b.api.Token), nil)
	if err != nil {
		return nil, "", fmt.Errorf("create file request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download telegram file: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected telegram file status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read telegram file body: %w", err)
	}

	ext := path.Ext(strings.TrimSpace(tgFile.FilePath))
	if ext == "" {
		ext = ".jpg"
	}

	return data, ext, nil
}

// SendDocument delivers a local file as a document attachment.
func (b *Bot) SendDocument(ctx context.Context, chatID int64, filePath, caption string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(filePath))
	doc.Caption = caption
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}

	_ = ctx
	return nil
}
