package chat

// Status kind constants for the live status sequence.
const (
	StatusStarted        = "started"
	StatusThinkingUpdate = "thinking_update"
	StatusTextUpdate     = "text_update"
	StatusCompleted      = "completed"
	StatusError          = "error"
)

// StreamStatus is the ephemeral progress signal surfaced to the caller while
// an AI turn streams. It is never persisted.
//
// Exactly one started status is emitted first and exactly one terminal status
// (completed or error) is emitted last. Thinking/text updates may repeat in
// between; their Text field is the accumulated content so far and is
// monotonically non-decreasing in length.
type StreamStatus struct {
	Kind      string `json:"kind"`
	MessageID string `json:"message_id,omitempty"`

	// Accumulated content so far (thinking_update / text_update).
	Text string `json:"text,omitempty"`

	// Milliseconds since the first thinking delta (thinking_update only).
	ElapsedMS int64 `json:"elapsed_ms,omitempty"`

	// Terminal payloads.
	FinalText    string      `json:"final_text,omitempty"`
	Usage        *TokenUsage `json:"usage,omitempty"`
	ErrorMessage string      `json:"error,omitempty"`

	// Err is the underlying cause for error statuses. Not serialized;
	// ErrorMessage carries the wire representation.
	Err error `json:"-"`
}

// IsTerminal returns true for the status kinds that end the live sequence.
func (s StreamStatus) IsTerminal() bool {
	return s.Kind == StatusCompleted || s.Kind == StatusError
}

// StartedStatus builds the initial status for a turn.
func StartedStatus(messageID string) StreamStatus {
	return StreamStatus{Kind: StatusStarted, MessageID: messageID}
}

// ThinkingUpdateStatus builds a thinking progress status.
func ThinkingUpdateStatus(messageID, textSoFar string, elapsedMS int64) StreamStatus {
	return StreamStatus{Kind: StatusThinkingUpdate, MessageID: messageID, Text: textSoFar, ElapsedMS: elapsedMS}
}

// TextUpdateStatus builds an answer progress status.
func TextUpdateStatus(messageID, textSoFar string) StreamStatus {
	return StreamStatus{Kind: StatusTextUpdate, MessageID: messageID, Text: textSoFar}
}

// CompletedStatus builds the terminal success status.
func CompletedStatus(messageID, finalText string, usage *TokenUsage) StreamStatus {
	return StreamStatus{Kind: StatusCompleted, MessageID: messageID, FinalText: finalText, Usage: usage}
}

// ErrorStatus builds the terminal failure status.
func ErrorStatus(messageID string, err error) StreamStatus {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return StreamStatus{Kind: StatusError, MessageID: messageID, ErrorMessage: msg, Err: err}
}
