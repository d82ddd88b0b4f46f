package moderation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nilufaroy/FerPs-Anon-bot-2/internal/infra/telegram"
)

// Channel posts without a public username have no linkable URL; Telegram
// still requires URL buttons to carry something.
const placeholderChannelLink = "https://t.me/"

var ErrBadPayload = errors.New("malformed callback payload")

type ActionKind int

const (
	ActionDelete ActionKind = iota + 1
	ActionBan
)

// Action is the parsed form of a button payload ("del:<id>" / "ban:<id>").
// Parsing happens once at the boundary; unknown tags are rejected explicitly
// instead of being silently ignored downstream.
type Action struct {
	Kind         ActionKind
	SubmissionID int64
}

func ParseAction(data string) (Action, error) {
	tag, idPart, found := strings.Cut(data, ":")
	if !found {
		return Action{}, fmt.Errorf("%w: %q", ErrBadPayload, data)
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return Action{}, fmt.Errorf("%w: bad id in %q", ErrBadPayload, data)
	}

	switch tag {
	case "del":
		return Action{Kind: ActionDelete, SubmissionID: id}, nil
	case "ban":
		return Action{Kind: ActionBan, SubmissionID: id}, nil
	default:
		return Action{}, fmt.Errorf("%w: unknown tag %q", ErrBadPayload, tag)
	}
}

func (a Action) Encode() string {
	switch a.Kind {
	case ActionDelete:
		return "del:" + strconv.FormatInt(a.SubmissionID, 10)
	case ActionBan:
		return "ban:" + strconv.FormatInt(a.SubmissionID, 10)
	default:
		return ""
	}
}

// SubmissionControls is the full inline keyboard attached to a fresh
// moderation mirror: delete, ban, profile deep link, view-in-channel.
func SubmissionControls(submissionID, userID int64, channelLink string) [][]telegram.Button {
	if channelLink == "" {
		channelLink = placeholderChannelLink
	}
	return [][]telegram.Button{
		{
			{Label: "🗑", CallbackData: Action{Kind: ActionDelete, SubmissionID: submissionID}.Encode()},
			{Label: "🚫", CallbackData: Action{Kind: ActionBan, SubmissionID: submissionID}.Encode()},
		},
		{
			{Label: "👤 Profile", URL: telegram.UserProfileLink(userID)},
			{Label: "🔗 View in Channel", URL: channelLink},
		},
	}
}

// ControlsAfterDelete is the reduced keyboard left once the channel post is
// gone: ban and profile only.
func ControlsAfterDelete(submissionID, userID int64) [][]telegram.Button {
	return [][]telegram.Button{
		{
			{Label: "🚫", CallbackData: Action{Kind: ActionBan, SubmissionID: submissionID}.Encode()},
		},
		{
			{Label: "👤 Profile", URL: telegram.UserProfileLink(userID)},
		},
	}
}
