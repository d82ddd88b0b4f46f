package telegram

import "testing"

func TestChannelMessageLink(t *testing.T) {
	link, ok := ChannelMessageLink("@ferpsanonymous", 42)
	if !ok {
		t.Fatalf("expected a link for a public channel")
	}
	if link != "https://t.me/ferpsanonymous/42" {
		t.Fatalf("unexpected link: %s", link)
	}

	if _, ok := ChannelMessageLink("-1001234567", 42); ok {
		t.Fatalf("private chat ids must not produce links")
	}
	if _, ok := ChannelMessageLink("@chan", 0); ok {
		t.Fatalf("zero message id must not produce a link")
	}
}

func TestUserProfileLink(t *testing.T) {
	if got := UserProfileLink(123); got != "tg://user?id=123" {
		t.Fatalf("unexpected profile link: %s", got)
	}
}
