package access

import (
	"context"
	"strconv"

	"github.com/nilufaroy/FerPs-Anon-bot-2/internal/infra/telegram"
	pgrepo "github.com/nilufaroy/FerPs-Anon-bot-2/internal/repo/postgres"
)

type SettingStore interface {
	Get(ctx context.Context, key string) (string, error)
}

type MemberSource interface {
	ChatMemberStatus(ctx context.Context, chatID, userID int64) (string, error)
}

// Service answers "may this user moderate". The static allowlist always
// wins; beyond that, administrators and the creator of the registered admin
// group qualify. Every lookup failure resolves to false, never an error.
type Service struct {
	adminIDs map[int64]struct{}
	settings SettingStore
	members  MemberSource
}

func NewService(adminIDs []int64, settings SettingStore, members MemberSource) *Service {
	allow := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		allow[id] = struct{}{}
	}

	return &Service{
		adminIDs: allow,
		settings: settings,
		members:  members,
	}
}

// IsStaticAdmin checks only the configured allowlist, no remote lookup.
func (s *Service) IsStaticAdmin(userID int64) bool {
	_, ok := s.adminIDs[userID]
	return ok
}

func (s *Service) IsAdmin(ctx context.Context, userID int64) bool {
	if userID <= 0 {
		return false
	}
	if s.IsStaticAdmin(userID) {
		return true
	}

	groupID, ok := s.GroupChatID(ctx)
	if !ok {
		return false
	}

	return s.IsGroupAdmin(ctx, groupID, userID)
}

// IsGroupAdmin checks the user's live role inside a specific chat. Used
// directly by /setgroup and /setchannel, which authorize against the
// invoking group rather than the registered one.
func (s *Service) IsGroupAdmin(ctx context.Context, chatID, userID int64) bool {
	if s.members == nil || chatID == 0 || userID <= 0 {
		return false
	}

	status, err := s.members.ChatMemberStatus(ctx, chatID, userID)
	if err != nil {
		return false
	}

	return status == telegram.RoleAdministrator || status == telegram.RoleCreator
}

// GroupChatID resolves the registered admin group, if any.
func (s *Service) GroupChatID(ctx context.Context) (int64, bool) {
	if s.settings == nil {
		return 0, false
	}

	raw, err := s.settings.Get(ctx, pgrepo.KeyGroupChatID)
	if err != nil {
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}

	return id, true
}
