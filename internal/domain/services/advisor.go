package services

import (
	"context"

	"confidant/internal/domain/models"
	"confidant/internal/domain/models/chat"
)

// SendRequest describes one advisor turn.
type SendRequest struct {
	ContactID string
	SessionID string

	// UserText may be empty only when SkipUserMessage is true (a regenerate
	// or retry call that reuses an already-persisted user message).
	UserText        string
	SkipUserMessage bool

	// RelatedUserMessageID links a regenerated AI turn to the user turn it
	// answers. When nil and SkipUserMessage is false, the just-created user
	// message is linked instead.
	RelatedUserMessageID *string
}

// Advisor drives AI turns for a contact session.
type Advisor interface {
	// Send runs one full AI-turn lifecycle and returns the live status
	// sequence. The channel is unbuffered (single-consumer, natural
	// backpressure) and is closed after the terminal status. All failures
	// surface as an error status on the channel, never as a panic or a
	// synchronous error. Cancelling ctx stops chunk consumption; rows keep
	// whatever status was last durably committed.
	Send(ctx context.Context, req *SendRequest) <-chan chat.StreamStatus

	// AnalyzeConversation asks the provider for a one-shot read of the
	// recent session window. Proposed risk/strategy tags are stored
	// unconfirmed on the contact.
	AnalyzeConversation(ctx context.Context, contactID, sessionID string) (*Analysis, error)

	// PolishMessage returns a rewrite of a draft the user wants to send to
	// the contact. Nothing is persisted.
	PolishMessage(ctx context.Context, contactID, draft string) (string, error)
}

// Analysis is the result of a one-shot conversation analysis.
type Analysis struct {
	Summary string              `json:"summary"`
	Tags    []models.ContactTag `json:"tags"`
}

// ReplyRequest is a provider-agnostic generation request. The prompt is a
// single bounded string produced by the prompt composer.
type ReplyRequest struct {
	Model           string
	System          *string
	Prompt          string
	MaxTokens       int
	ThinkingEnabled bool
}

// Reply is a provider's one-shot response.
type Reply struct {
	Text       string
	Model      string
	StopReason string
	Usage      *chat.TokenUsage
}

// ChatProvider is the interface every AI provider adapter implements.
type ChatProvider interface {
	// Name returns the provider name (e.g. "anthropic", "gemini", "lorem").
	Name() string

	// SupportsModel returns true if the provider serves the given model.
	SupportsModel(model string) bool

	// Reply generates a complete response in one call.
	Reply(ctx context.Context, req *ReplyRequest) (*Reply, error)

	// StreamReply opens a live response stream. The returned channel emits
	// delta chunks terminated by exactly one complete or error chunk and is
	// then closed. A non-nil error means the stream could not be opened.
	StreamReply(ctx context.Context, req *ReplyRequest) (<-chan chat.StreamChunk, error)
}
