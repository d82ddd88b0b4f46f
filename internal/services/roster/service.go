package roster

import (
	"context"
	"fmt"
	"strings"

	pgrepo "github.com/nilufaroy/FerPs-Anon-bot-2/internal/repo/postgres"
)

// chunkLimit keeps each reply comfortably under Telegram's 4096-char cap.
const chunkLimit = 3500

type SenderStore interface {
	ListUniqueSenders(ctx context.Context) ([]pgrepo.Sender, error)
}

type TextSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Service renders the unique-sender roster as numbered plain-text replies,
// most recent sender first.
type Service struct {
	submissions SenderStore
	sender      TextSender
}

func NewService(submissions SenderStore, sender TextSender) *Service {
	return &Service{submissions: submissions, sender: sender}
}

func (s *Service) List(ctx context.Context, chatID int64) error {
	senders, err := s.submissions.ListUniqueSenders(ctx)
	if err != nil {
		return fmt.Errorf("list unique senders: %w", err)
	}
	if len(senders) == 0 {
		return s.sender.SendText(ctx, chatID, "No users found yet.")
	}

	lines := make([]string, 0, len(senders)+1)
	lines = append(lines, "Users who sent messages:")
	for i, sub := range senders {
		lines = append(lines, fmt.Sprintf("%d. %d(ChatID) - %s(Username) - %s(Profile name)",
			i+1, sub.UserID, handleOrDash(sub.Username), nameOrDash(sub.FirstName, sub.LastName)))
	}

	for _, chunk := range chunkLines(lines, chunkLimit) {
		if err := s.sender.SendText(ctx, chatID, chunk); err != nil {
			return fmt.Errorf("send roster chunk: %w", err)
		}
	}
	return nil
}

func handleOrDash(username string) string {
	if username == "" {
		return "-"
	}
	return "@" + username
}

func nameOrDash(first, last string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{first, last} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

// chunkLines packs lines into newline-joined messages, starting a new message
// when appending the next line would exceed the limit.
func chunkLines(lines []string, limit int) []string {
	var chunks []string
	chunk := ""
	for _, line := range lines {
		switch {
		case chunk == "":
			chunk = line
		case len(chunk)+len(line)+1 > limit:
			chunks = append(chunks, chunk)
			chunk = line
		default:
			chunk += "\n" + line
		}
	}
	if chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
