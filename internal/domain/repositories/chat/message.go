package chat

import (
	"context"

	"confidant/internal/domain/models/chat"
)

// MessageWriter defines write operations against the conversation store.
// The streaming pipeline is the only writer for the rows it creates, so no
// concurrent-writer contract is needed.
type MessageWriter interface {
	// CreateMessage inserts a message row and fills in its generated ID and
	// creation time.
	CreateMessage(ctx context.Context, msg *chat.Message) error

	// CreateBlock inserts a block row and fills in its generated ID.
	CreateBlock(ctx context.Context, block *chat.MessageBlock) error

	// UpsertBlock creates the block if it does not exist yet, otherwise
	// replaces its content and status. Used for the thinking-complete write
	// and the terminal flush; never called per delta.
	UpsertBlock(ctx context.Context, block *chat.MessageBlock) error

	// UpdateMessageResult writes a message's final content and send status.
	// Called exactly once per turn, at completion or failure.
	UpdateMessageResult(ctx context.Context, messageID, content, status string) error
}

// MessageReader defines read operations against the conversation store.
type MessageReader interface {
	// GetMessage retrieves a message by ID (without blocks).
	// Returns domain.ErrNotFound if it does not exist.
	GetMessage(ctx context.Context, messageID string) (*chat.Message, error)

	// ListSessionMessages returns up to limit messages of one contact
	// session, newest first. limit <= 0 means no limit.
	ListSessionMessages(ctx context.Context, contactID, sessionID string, limit int) ([]chat.Message, error)

	// GetBlocks returns a message's blocks ordered by creation time.
	GetBlocks(ctx context.Context, messageID string) ([]chat.MessageBlock, error)
}

// MessageRepository combines the read and write sides of the store.
type MessageRepository interface {
	MessageReader
	MessageWriter
}
