package lorem

import (
	"context"
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/lorem"

	"confidant/internal/domain/models/chat"
	"confidant/internal/domain/services"
)

// Provider wraps the library's lorem provider for development and tests:
// deterministic placeholder responses with realistic streaming pacing, no
// API key, no network.
type Provider struct {
	provider llmprovider.Provider
}

// NewProvider creates a new lorem provider.
func NewProvider() *Provider {
	return &Provider{provider: lorem.NewProvider()}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return p.provider.Name().String()
}

// SupportsModel returns true if this provider serves the given model.
func (p *Provider) SupportsModel(model string) bool {
	return p.provider.SupportsModel(model)
}

// Reply generates a complete response in one call.
func (p *Provider) Reply(ctx context.Context, req *services.ReplyRequest) (*services.Reply, error) {
	resp, err := p.provider.GenerateResponse(ctx, libraryRequest(req))
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, block := range resp.Blocks {
		if block.BlockType == "text" && block.TextContent != nil {
			sb.WriteString(*block.TextContent)
		}
	}

	return &services.Reply{
		Text:       sb.String(),
		Model:      resp.Model,
		StopReason: resp.StopReason,
		Usage: &chat.TokenUsage{
			PromptTokens:     resp.InputTokens,
			CompletionTokens: resp.OutputTokens,
			TotalTokens:      resp.InputTokens + resp.OutputTokens,
		},
	}, nil
}

// StreamReply opens a live response stream.
func (p *Provider) StreamReply(ctx context.Context, req *services.ReplyRequest) (<-chan chat.StreamChunk, error) {
	events, err := p.provider.StreamResponse(ctx, libraryRequest(req))
	if err != nil {
		return nil, err
	}

	out := make(chan chat.StreamChunk, 10)
	go pipeEvents(ctx, events, out)
	return out, nil
}

// pipeEvents adapts the library's event stream to the chunk contract. The
// library tags content deltas with a delta type and sets the block type only
// on a block's first delta, so the thinking_complete marker is derived from
// the transition out of the thinking block.
func pipeEvents(ctx context.Context, events <-chan llmprovider.StreamEvent, out chan<- chat.StreamChunk) {
	defer close(out)

	send := func(chunk chat.StreamChunk) bool {
		select {
		case <-ctx.Done():
			return false
		case out <- chunk:
			return true
		}
	}

	started := false
	var thinking strings.Builder

	// closeThinking emits the thinking_complete marker once, when the
	// stream moves past the thinking block.
	closeThinking := func() bool {
		if thinking.Len() == 0 {
			return true
		}
		ok := send(chat.StreamChunk{Kind: chat.ChunkThinkingComplete, FullText: thinking.String()})
		thinking.Reset()
		return ok
	}

	for event := range events {
		if event.Error != nil {
			send(chat.StreamChunk{Kind: chat.ChunkError, Err: event.Error})
			return
		}

		if !started {
			started = true
			if !send(chat.StreamChunk{Kind: chat.ChunkStarted}) {
				return
			}
		}

		if event.Delta != nil && event.Delta.TextDelta != nil {
			switch event.Delta.DeltaType {
			case llmprovider.DeltaTypeThinking:
				thinking.WriteString(*event.Delta.TextDelta)
				if !send(chat.StreamChunk{Kind: chat.ChunkThinkingDelta, Text: *event.Delta.TextDelta}) {
					return
				}
			case llmprovider.DeltaTypeText:
				if !closeThinking() {
					return
				}
				if !send(chat.StreamChunk{Kind: chat.ChunkTextDelta, Text: *event.Delta.TextDelta}) {
					return
				}
			}
			continue
		}

		if event.Metadata != nil {
			if !closeThinking() {
				return
			}
			// FullText stays empty; the consumer assembles the answer
			// from its accumulated deltas.
			send(chat.StreamChunk{
				Kind: chat.ChunkComplete,
				Usage: &chat.TokenUsage{
					PromptTokens:     event.Metadata.InputTokens,
					CompletionTokens: event.Metadata.OutputTokens,
					TotalTokens:      event.Metadata.InputTokens + event.Metadata.OutputTokens,
				},
			})
			return
		}
	}
}

func libraryRequest(req *services.ReplyRequest) *llmprovider.GenerateRequest {
	prompt := req.Prompt

	return &llmprovider.GenerateRequest{
		Model: req.Model,
		Messages: []llmprovider.Message{
			{
				Role: "user",
				Blocks: []*llmprovider.Block{
					{
						BlockType:   "text",
						Sequence:    0,
						TextContent: &prompt,
					},
				},
			},
		},
		Params: &llmprovider.RequestParams{
			System:          req.System,
			ThinkingEnabled: &req.ThinkingEnabled,
		},
	}
}
