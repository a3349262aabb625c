package advisor

import (
	"strings"

	"confidant/internal/domain/models/chat"
)

// BlockAccumulator buffers block content in memory during one AI turn so the
// pipeline never performs a durable write per chunk. It hands the
// orchestrator a consistent "content so far" value for live status emission.
//
// Accumulators are turn-scoped: one per Send invocation, discarded at the
// terminal transition, never shared across turns.
//
// Thread-safety: NOT thread-safe. Used by the single consumer loop only.
type BlockAccumulator struct {
	thinking strings.Builder
	mainText strings.Builder

	hasThinking bool
}

// NewBlockAccumulator creates an empty accumulator for one turn.
func NewBlockAccumulator() *BlockAccumulator {
	return &BlockAccumulator{}
}

// Append adds a delta to the buffer for the given block type and returns the
// accumulated text so far. Appending the first thinking delta marks the
// thinking block as existing (lazy creation: no block exists until its first
// delta arrives).
func (a *BlockAccumulator) Append(blockType, delta string) string {
	switch blockType {
	case chat.BlockTypeThinking:
		a.hasThinking = true
		a.thinking.WriteString(delta)
		return a.thinking.String()
	default:
		a.mainText.WriteString(delta)
		return a.mainText.String()
	}
}

// Text returns the accumulated content for a block type without modifying it.
func (a *BlockAccumulator) Text(blockType string) string {
	if blockType == chat.BlockTypeThinking {
		return a.thinking.String()
	}
	return a.mainText.String()
}

// HasThinking reports whether any thinking delta arrived this turn.
func (a *BlockAccumulator) HasThinking() bool {
	return a.hasThinking
}
