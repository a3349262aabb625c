package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"confidant/internal/domain/models/chat"
	"confidant/internal/domain/services"
)

// StreamReply opens a live Claude response stream and adapts the SDK event
// stream to the chunk contract: deltas, a thinking_complete marker when the
// thinking block closes, and exactly one terminal chunk.
func (p *Provider) StreamReply(ctx context.Context, req *services.ReplyRequest) (<-chan chat.StreamChunk, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model %q is not supported by anthropic provider", req.Model)
	}

	out := make(chan chat.StreamChunk, 10)

	go func() {
		defer close(out)

		stream := p.client.Messages.NewStreaming(ctx, buildParams(req))

		// Accumulator for final message metadata.
		message := anthropic.Message{}

		// The SDK addresses content blocks by index; the thinking_complete
		// marker needs to know which index holds the thinking block.
		blockTypes := make(map[int64]string)
		var thinkingText string

		send := func(chunk chat.StreamChunk) bool {
			select {
			case <-ctx.Done():
				return false
			case out <- chunk:
				return true
			}
		}

		for stream.Next() {
			event := stream.Current()

			if err := message.Accumulate(event); err != nil {
				send(chat.StreamChunk{Kind: chat.ChunkError, Err: fmt.Errorf("accumulate message: %w", err)})
				return
			}

			switch e := event.AsAny().(type) {
			case anthropic.MessageStartEvent:
				if !send(chat.StreamChunk{Kind: chat.ChunkStarted}) {
					return
				}

			case anthropic.ContentBlockStartEvent:
				blockTypes[e.Index] = string(e.ContentBlock.Type)

			case anthropic.ContentBlockDeltaEvent:
				switch e.Delta.Type {
				case "text_delta":
					if !send(chat.StreamChunk{Kind: chat.ChunkTextDelta, Text: e.Delta.Text}) {
						return
					}
				case "thinking_delta":
					thinkingText += e.Delta.Thinking
					if !send(chat.StreamChunk{Kind: chat.ChunkThinkingDelta, Text: e.Delta.Thinking}) {
						return
					}
				}

			case anthropic.ContentBlockStopEvent:
				if blockTypes[e.Index] == "thinking" {
					if !send(chat.StreamChunk{Kind: chat.ChunkThinkingComplete, FullText: thinkingText}) {
						return
					}
				}
			}
		}

		if err := stream.Err(); err != nil {
			send(chat.StreamChunk{Kind: chat.ChunkError, Err: fmt.Errorf("anthropic streaming error: %w", err)})
			return
		}

		send(chat.StreamChunk{
			Kind:     chat.ChunkComplete,
			FullText: extractText(&message),
			Usage:    usageFrom(&message),
		})
	}()

	return out, nil
}
