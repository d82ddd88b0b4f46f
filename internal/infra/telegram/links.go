package telegram

import (
	"fmt"
	"strings"
)

// ChannelMessageLink builds a public https://t.me link for a channel post.
// Only channels with a public @username have linkable posts.
func ChannelMessageLink(channelUsername string, messageID int) (string, bool) {
	if !strings.HasPrefix(channelUsername, "@") || messageID <= 0 {
		return "", false
	}
	return fmt.Sprintf("https://t.me/%s/%d", strings.TrimPrefix(channelUsername, "@"), messageID), true
}

// UserProfileLink deep-links to a user by numeric id, which survives
// username changes.
func UserProfileLink(userID int64) string {
	return fmt.Sprintf("tg://user?id=%d", userID)
}
