package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	pgrepo "github.com/nilufaroy/FerPs-Anon-bot-2/internal/repo/postgres"
)

type senderStoreStub struct {
	senders []pgrepo.Sender
	err     error
}

func (s *senderStoreStub) ListUniqueSenders(_ context.Context) ([]pgrepo.Sender, error) {
	return s.senders, s.err
}

type textSenderStub struct {
	chatIDs []int64
	texts   []string
	err     error
}

func (s *textSenderStub) SendText(_ context.Context, chatID int64, text string) error {
	s.chatIDs = append(s.chatIDs, chatID)
	s.texts = append(s.texts, text)
	return s.err
}

func TestListEmptyRoster(t *testing.T) {
	out := &textSenderStub{}
	svc := NewService(&senderStoreStub{}, out)

	if err := svc.List(context.Background(), 42); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out.texts) != 1 || out.texts[0] != "No users found yet." {
		t.Fatalf("unexpected replies: %v", out.texts)
	}
}

func TestListFormatsLines(t *testing.T) {
	store := &senderStoreStub{senders: []pgrepo.Sender{
		{UserID: 100, Username: "alice", FirstName: "Alice", LastName: "Smith", LastAt: time.Now()},
		{UserID: 200, FirstName: "Bob"},
		{UserID: 300},
	}}
	out := &textSenderStub{}
	svc := NewService(store, out)

	if err := svc.List(context.Background(), 42); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out.texts) != 1 {
		t.Fatalf("expected a single chunk, got %d", len(out.texts))
	}
	want := strings.Join([]string{
		"Users who sent messages:",
		"1. 100(ChatID) - @alice(Username) - Alice Smith(Profile name)",
		"2. 200(ChatID) - -(Username) - Bob(Profile name)",
		"3. 300(ChatID) - -(Username) - -(Profile name)",
	}, "\n")
	if out.texts[0] != want {
		t.Fatalf("unexpected roster:\n%s\nwant:\n%s", out.texts[0], want)
	}
	if out.chatIDs[0] != 42 {
		t.Fatalf("roster sent to wrong chat: %d", out.chatIDs[0])
	}
}

func TestListChunksLongRosters(t *testing.T) {
	store := &senderStoreStub{}
	for i := 0; i < 200; i++ {
		store.senders = append(store.senders, pgrepo.Sender{
			UserID:    int64(1_000_000 + i),
			Username:  fmt.Sprintf("user_with_a_long_handle_%03d", i),
			FirstName: "First",
			LastName:  "Last",
		})
	}
	out := &textSenderStub{}
	svc := NewService(store, out)

	if err := svc.List(context.Background(), 42); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out.texts) < 2 {
		t.Fatalf("expected the roster to split into chunks, got %d message(s)", len(out.texts))
	}
	for i, text := range out.texts {
		if len(text) > chunkLimit {
			t.Fatalf("chunk %d exceeds limit: %d chars", i, len(text))
		}
	}
	joined := strings.Join(out.texts, "\n")
	if !strings.HasPrefix(joined, "Users who sent messages:") {
		t.Fatalf("header missing from first chunk")
	}
	if !strings.Contains(joined, "200. ") {
		t.Fatalf("last sender missing from chunked output")
	}
}

func TestListSendFailureSurfaces(t *testing.T) {
	store := &senderStoreStub{senders: []pgrepo.Sender{{UserID: 1}}}
	out := &textSenderStub{err: errors.New("chat not found")}
	svc := NewService(store, out)

	if err := svc.List(context.Background(), 42); err == nil {
		t.Fatalf("expected send error to surface")
	}
}
