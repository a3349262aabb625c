package chat

import (
	"time"
)

// Block type constants
const (
	BlockTypeThinking = "thinking"
	BlockTypeMainText = "main_text"
)

// Block status constants
const (
	BlockStatusPending   = "pending"
	BlockStatusStreaming = "streaming"
	BlockStatusSuccess   = "success"
	BlockStatusError     = "error"
)

// MessageBlock is a typed segment of an AI message's content.
//
// An AI message owns at most one thinking block and exactly one main_text
// block. The main_text block is created together with the message placeholder
// (status pending); the thinking block is created lazily on the first
// thinking delta. Content is append-only until the block reaches success or
// error, after which it is immutable.
type MessageBlock struct {
	ID        string    `json:"id" db:"id"`
	MessageID string    `json:"message_id" db:"message_id"`
	BlockType string    `json:"block_type" db:"block_type"` // "thinking" or "main_text"
	Content   string    `json:"content" db:"content"`
	Status    string    `json:"status" db:"status"` // "pending", "streaming", "success", "error"
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsFinal returns true once the block content is immutable.
func (b *MessageBlock) IsFinal() bool {
	return b.Status == BlockStatusSuccess || b.Status == BlockStatusError
}
