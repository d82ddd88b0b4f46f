package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/nilufaroy/FerPs-Anon-bot-2/internal/infra/telegram"
	pgrepo "github.com/nilufaroy/FerPs-Anon-bot-2/internal/repo/postgres"
)

type submissionStub struct {
	record pgrepo.SubmissionRecord
	err    error
}

func (s *submissionStub) GetByID(_ context.Context, _ int64) (pgrepo.SubmissionRecord, error) {
	return s.record, s.err
}

type banStub struct {
	banned map[int64]string
	err    error
}

func (s *banStub) Ban(_ context.Context, userID int64, reason string) error {
	if s.err != nil {
		return s.err
	}
	if s.banned == nil {
		s.banned = make(map[int64]string)
	}
	if _, ok := s.banned[userID]; !ok {
		s.banned[userID] = reason
	}
	return nil
}

type remoteStub struct {
	deleteErr     error
	deletes       int
	markupRows    [][]telegram.Button
	markupCleared bool
	markupCalls   int
	sentTexts     []string
	answers       []string
	alerts        []bool
}

func (r *remoteStub) DeleteChannelMessage(_ context.Context, _ string, _ int) error {
	r.deletes++
	return r.deleteErr
}

func (r *remoteStub) SetReplyMarkup(_ context.Context, _ int64, _ int, rows [][]telegram.Button) error {
	r.markupCalls++
	r.markupRows = rows
	r.markupCleared = len(rows) == 0
	return nil
}

func (r *remoteStub) SendText(_ context.Context, _ int64, text string) error {
	r.sentTexts = append(r.sentTexts, text)
	return nil
}

func (r *remoteStub) AnswerCallback(_ context.Context, _ string, text string, alert bool) error {
	r.answers = append(r.answers, text)
	r.alerts = append(r.alerts, alert)
	return nil
}

type authStub struct {
	static  map[int64]bool
	groupID int64
	roles   map[int64]bool
}

func (a *authStub) IsStaticAdmin(userID int64) bool {
	return a.static[userID]
}

func (a *authStub) IsGroupAdmin(_ context.Context, _ int64, userID int64) bool {
	return a.roles[userID]
}

func (a *authStub) GroupChatID(_ context.Context) (int64, bool) {
	return a.groupID, a.groupID != 0
}

func testRecord() pgrepo.SubmissionRecord {
	return pgrepo.SubmissionRecord{
		ID:               12,
		UserID:           500,
		ChannelUsername:  "@chan",
		ChannelMessageID: 33,
		GroupMessageID:   44,
	}
}

func TestHandleCallbackRejectsNonAdmins(t *testing.T) {
	remote := &remoteStub{}
	bans := &banStub{}
	svc := NewService(
		&submissionStub{record: testRecord()},
		bans,
		remote,
		&authStub{groupID: -100, roles: map[int64]bool{}},
		nil,
	)

	err := svc.HandleCallback(context.Background(), Callback{
		CallbackID: "cb1",
		ChatID:     -100,
		MessageID:  44,
		UserID:     9,
		Data:       "ban:12",
	})
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}

	if len(bans.banned) != 0 {
		t.Fatalf("non-admin press must not ban anyone")
	}
	if remote.deletes != 0 {
		t.Fatalf("non-admin press must not delete anything")
	}
	if len(remote.answers) != 1 || remote.answers[0] != "Admins only." || !remote.alerts[0] {
		t.Fatalf("expected visible admins-only notice, got %v alerts=%v", remote.answers, remote.alerts)
	}
}

func TestHandleCallbackGroupRoleOnlyCountsInsideRegisteredGroup(t *testing.T) {
	remote := &remoteStub{}
	bans := &banStub{}
	svc := NewService(
		&submissionStub{record: testRecord()},
		bans,
		remote,
		&authStub{groupID: -100, roles: map[int64]bool{9: true}},
		nil,
	)

	// Same admin role, but the press arrived from a different chat.
	err := svc.HandleCallback(context.Background(), Callback{
		ChatID: -999,
		UserID: 9,
		Data:   "ban:12",
	})
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if len(bans.banned) != 0 {
		t.Fatalf("group role outside the registered group must not authorize")
	}
}

func TestHandleBanIsIdempotentAndAlwaysClearsControls(t *testing.T) {
	remote := &remoteStub{deleteErr: errors.New("message already gone")}
	bans := &banStub{}
	svc := NewService(
		&submissionStub{record: testRecord()},
		bans,
		remote,
		&authStub{static: map[int64]bool{1: true}},
		nil,
	)

	cb := Callback{CallbackID: "cb", ChatID: -100, MessageID: 44, UserID: 1, Data: "ban:12"}
	for i := 0; i < 2; i++ {
		if err := svc.HandleCallback(context.Background(), cb); err != nil {
			t.Fatalf("handle ban press #%d: %v", i+1, err)
		}
	}

	if len(bans.banned) != 1 {
		t.Fatalf("expected exactly one ban row, got %d", len(bans.banned))
	}
	if reason := bans.banned[500]; reason != "Admin ban" {
		t.Fatalf("unexpected ban reason: %q", reason)
	}
	if !remote.markupCleared {
		t.Fatalf("controls must be cleared even when the channel delete fails")
	}
	if len(remote.sentTexts) != 2 {
		t.Fatalf("expected a ban notification per press, got %d", len(remote.sentTexts))
	}
}

func TestHandleDeleteLeavesReducedControls(t *testing.T) {
	remote := &remoteStub{}
	svc := NewService(
		&submissionStub{record: testRecord()},
		&banStub{},
		remote,
		&authStub{static: map[int64]bool{1: true}},
		nil,
	)

	err := svc.HandleCallback(context.Background(), Callback{
		CallbackID: "cb",
		ChatID:     -100,
		MessageID:  44,
		UserID:     1,
		Data:       "del:12",
	})
	if err != nil {
		t.Fatalf("handle delete: %v", err)
	}

	if remote.deletes != 1 {
		t.Fatalf("expected one channel delete, got %d", remote.deletes)
	}
	if len(remote.markupRows) != 2 {
		t.Fatalf("expected reduced controls, got %+v", remote.markupRows)
	}
	if remote.markupRows[0][0].CallbackData != "ban:12" {
		t.Fatalf("reduced controls must keep the ban button, got %+v", remote.markupRows[0])
	}
}

func TestHandleCallbackMissingRecordClearsControlsSilently(t *testing.T) {
	remote := &remoteStub{}
	bans := &banStub{}
	svc := NewService(
		&submissionStub{err: pgrepo.ErrSubmissionNotFound},
		bans,
		remote,
		&authStub{static: map[int64]bool{1: true}},
		nil,
	)

	err := svc.HandleCallback(context.Background(), Callback{
		CallbackID: "cb",
		ChatID:     -100,
		MessageID:  44,
		UserID:     1,
		Data:       "del:999",
	})
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}

	if !remote.markupCleared {
		t.Fatalf("missing record must clear the controls")
	}
	if len(remote.answers) != 1 || remote.answers[0] != "" {
		t.Fatalf("missing record must not raise a notice, got %v", remote.answers)
	}
}

func TestHandleCallbackBadPayloadIsNoOp(t *testing.T) {
	remote := &remoteStub{}
	bans := &banStub{}
	svc := NewService(
		&submissionStub{record: testRecord()},
		bans,
		remote,
		&authStub{static: map[int64]bool{1: true}},
		nil,
	)

	err := svc.HandleCallback(context.Background(), Callback{UserID: 1, Data: "garbage"})
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}

	if len(bans.banned) != 0 || remote.deletes != 0 || remote.markupCalls != 0 {
		t.Fatalf("bad payload must not mutate anything")
	}
}
