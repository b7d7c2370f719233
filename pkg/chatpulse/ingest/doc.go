package ingest

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
)

// Message is a chat message as received from the chat platform.
type Message struct {
	ExternalID    string // platform message id, used for deduplication
	ServerID      string
	ChannelID     string
	AuthorID      string
	Content       string
	ReactionCount int
	Timestamp     time.Time
}

// Validate checks if the message has required fields
func (m *Message) Validate() error {
	if strings.TrimSpace(m.ServerID) == "" {
		return internalerr.InvalidInput("message server id is required")
	}

	if strings.TrimSpace(m.AuthorID) == "" {
		return internalerr.InvalidInput("message author id is required")
	}

	if m.Timestamp.IsZero() {
		return internalerr.InvalidInput("message timestamp is required")
	}

	if !utf8.ValidString(m.Content) {
		return internalerr.InvalidInput("message content is not valid UTF-8")
	}

	if m.ReactionCount < 0 {
		return internalerr.InvalidInput("message reaction count %d is negative", m.ReactionCount)
	}

	return nil
}
