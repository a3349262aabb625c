package chat

// Chunk kind constants for the provider stream contract.
const (
	ChunkStarted          = "started"
	ChunkThinkingDelta    = "thinking_delta"
	ChunkThinkingComplete = "thinking_complete"
	ChunkTextDelta        = "text_delta"
	ChunkComplete         = "complete"
	ChunkError            = "error"
)

// StreamChunk is one incremental unit emitted by a provider's live response
// stream. A well-behaved provider emits any number of delta chunks terminated
// by exactly one of ChunkComplete or ChunkError, after which the channel is
// closed.
//
// This is a tagged union: Kind selects which payload fields are meaningful.
//   - thinking_delta / text_delta: Text carries the delta
//   - thinking_complete:           FullText carries the full thinking text
//   - complete:                    FullText carries the final answer (may be
//     empty when the provider does not resend it), Usage is optional
//   - error:                       Err carries the cause
type StreamChunk struct {
	Kind     string
	Text     string
	FullText string
	Usage    *TokenUsage
	Err      error
}

// IsTerminal returns true for the chunk kinds that end the provider stream.
func (c StreamChunk) IsTerminal() bool {
	return c.Kind == ChunkComplete || c.Kind == ChunkError
}
