package moderation

import (
	"errors"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Action
		wantErr bool
	}{
		{name: "delete", data: "del:12", want: Action{Kind: ActionDelete, SubmissionID: 12}},
		{name: "ban", data: "ban:7", want: Action{Kind: ActionBan, SubmissionID: 7}},
		{name: "unknown tag", data: "nuke:7", wantErr: true},
		{name: "no separator", data: "del", wantErr: true},
		{name: "bad id", data: "del:abc", wantErr: true},
		{name: "zero id", data: "ban:0", wantErr: true},
		{name: "empty", data: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrBadPayload) {
					t.Fatalf("expected ErrBadPayload, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tt.data, err)
			}
			if got != tt.want {
				t.Fatalf("unexpected action: got %+v want %+v", got, tt.want)
			}
		})
	}
}

func TestActionEncodeRoundTrip(t *testing.T) {
	for _, action := range []Action{
		{Kind: ActionDelete, SubmissionID: 3},
		{Kind: ActionBan, SubmissionID: 99},
	} {
		parsed, err := ParseAction(action.Encode())
		if err != nil {
			t.Fatalf("parse %q: %v", action.Encode(), err)
		}
		if parsed != action {
			t.Fatalf("round trip mismatch: got %+v want %+v", parsed, action)
		}
	}
}

func TestSubmissionControlsFallBackToPlaceholderLink(t *testing.T) {
	rows := SubmissionControls(5, 10, "")
	if len(rows) != 2 || len(rows[1]) != 2 {
		t.Fatalf("unexpected keyboard shape: %+v", rows)
	}
	if rows[1][1].URL != placeholderChannelLink {
		t.Fatalf("expected placeholder channel link, got %s", rows[1][1].URL)
	}
}
