package chat

import (
	"time"
)

// Author constants for Message.Author
const (
	AuthorUser = "user"
	AuthorAI   = "ai"
)

// Send status constants for Message.SendStatus
const (
	SendStatusPending = "pending"
	SendStatusSuccess = "success"
	SendStatusFailed  = "failed"
)

// Message represents a single turn in an advisor session (user or AI).
// Content is denormalized final text: it stays empty while the turn is
// streaming (SendStatus=pending) and is written exactly once when the turn
// reaches a terminal status. Detailed content lives in MessageBlocks.
type Message struct {
	ID                   string    `json:"id" db:"id"`
	ContactID            string    `json:"contact_id" db:"contact_id"`
	SessionID            string    `json:"session_id" db:"session_id"`
	Author               string    `json:"author" db:"author"` // "user" or "ai"
	Content              string    `json:"content" db:"content"`
	SendStatus           string    `json:"send_status" db:"send_status"` // "pending", "success", "failed"
	RelatedUserMessageID *string   `json:"related_user_message_id,omitempty" db:"related_user_message_id"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`

	// Computed field (not stored in the messages table)
	Blocks []MessageBlock `json:"blocks,omitempty"`
}

// IsTerminal returns true once the message reached a final send status.
// Terminal messages are immutable.
func (m *Message) IsTerminal() bool {
	return m.SendStatus == SendStatusSuccess || m.SendStatus == SendStatusFailed
}
