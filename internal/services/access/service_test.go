package access

import (
	"context"
	"errors"
	"testing"

	pgrepo "github.com/nilufaroy/FerPs-Anon-bot-2/internal/repo/postgres"
)

type settingsStub struct {
	values map[string]string
}

func (s *settingsStub) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", pgrepo.ErrSettingNotFound
}

type membersStub struct {
	status string
	err    error
	calls  int
}

func (m *membersStub) ChatMemberStatus(_ context.Context, _, _ int64) (string, error) {
	m.calls++
	return m.status, m.err
}

func TestIsAdminAllowlistSkipsLookup(t *testing.T) {
	members := &membersStub{status: "member"}
	svc := NewService([]int64{100}, &settingsStub{}, members)

	if !svc.IsAdmin(context.Background(), 100) {
		t.Fatalf("allowlisted user must be admin")
	}
	if members.calls != 0 {
		t.Fatalf("allowlist hit must not trigger a remote lookup, got %d calls", members.calls)
	}
}

func TestIsAdminGroupRoles(t *testing.T) {
	tests := []struct {
		name   string
		status string
		err    error
		want   bool
	}{
		{name: "administrator", status: "administrator", want: true},
		{name: "creator", status: "creator", want: true},
		{name: "plain member", status: "member", want: false},
		{name: "lookup failure resolves to false", err: errors.New("network down"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &settingsStub{values: map[string]string{pgrepo.KeyGroupChatID: "-100500"}}
			members := &membersStub{status: tt.status, err: tt.err}
			svc := NewService(nil, settings, members)

			if got := svc.IsAdmin(context.Background(), 7); got != tt.want {
				t.Fatalf("unexpected admin decision: got %v want %v", got, tt.want)
			}
		})
	}
}

func TestIsAdminWithoutRegisteredGroup(t *testing.T) {
	members := &membersStub{status: "creator"}
	svc := NewService(nil, &settingsStub{}, members)

	if svc.IsAdmin(context.Background(), 7) {
		t.Fatalf("no registered group means no group-based authority")
	}
	if members.calls != 0 {
		t.Fatalf("no group registered must not trigger a lookup")
	}
}

func TestGroupChatIDRejectsGarbage(t *testing.T) {
	settings := &settingsStub{values: map[string]string{pgrepo.KeyGroupChatID: "not-a-number"}}
	svc := NewService(nil, settings, &membersStub{})

	if _, ok := svc.GroupChatID(context.Background()); ok {
		t.Fatalf("malformed group id must resolve to absent")
	}
}
