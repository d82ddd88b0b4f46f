package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Message type vocabulary stored alongside every submission.
const (
	TypeText      = "text"
	TypePhoto     = "photo"
	TypeVideo     = "video"
	TypeVoice     = "voice"
	TypeAnimation = "animation"
	TypeSticker   = "sticker"
	TypeDocument  = "document"
	TypeOther     = "other"
)

type Classified struct {
	Type        string
	ContentText string
	MediaFileID string
}

// Classify buckets a message into exactly one type. Precedence is
// first-match: text, photo, video, voice, animation, sticker, document,
// other. Animations arrive with the document field set too, so animation
// must be checked first. For photos the highest-resolution variant wins.
func Classify(msg *tgbotapi.Message) Classified {
	if msg == nil {
		return Classified{Type: TypeOther}
	}

	c := Classified{ContentText: msg.Text}
	if c.ContentText == "" {
		c.ContentText = msg.Caption
	}

	switch {
	case msg.Text != "":
		c.Type = TypeText
	case len(msg.Photo) > 0:
		c.Type = TypePhoto
		c.MediaFileID = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Video != nil:
		c.Type = TypeVideo
		c.MediaFileID = msg.Video.FileID
	case msg.Voice != nil:
		c.Type = TypeVoice
		c.MediaFileID = msg.Voice.FileID
	case msg.Animation != nil:
		c.Type = TypeAnimation
		c.MediaFileID = msg.Animation.FileID
	case msg.Sticker != nil:
		c.Type = TypeSticker
		c.MediaFileID = msg.Sticker.FileID
	case msg.Document != nil:
		c.Type = TypeDocument
		c.MediaFileID = msg.Document.FileID
	default:
		c.Type = TypeOther
	}

	return c
}
