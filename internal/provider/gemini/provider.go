package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"confidant/internal/domain/models/chat"
	"confidant/internal/domain/services"
)

// Provider implements services.ChatProvider for Google Gemini models.
// Gemini has no separate thinking channel, so its streams carry only text
// deltas and the terminal chunk.
type Provider struct {
	client *genai.Client
}

// NewProvider creates a new Gemini provider with the given API key.
func NewProvider(ctx context.Context, apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Provider{client: client}, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gemini"
}

// SupportsModel returns true if this provider serves the given model.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "gemini-")
}

// Reply generates a complete response in one call.
func (p *Provider) Reply(ctx context.Context, req *services.ReplyRequest) (*services.Reply, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model %q is not supported by gemini provider", req.Model)
	}

	resp, err := p.model(req).GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	return &services.Reply{
		Text:  extractText(resp),
		Model: req.Model,
		Usage: usageFrom(resp),
	}, nil
}

// StreamReply opens a live response stream.
func (p *Provider) StreamReply(ctx context.Context, req *services.ReplyRequest) (<-chan chat.StreamChunk, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model %q is not supported by gemini provider", req.Model)
	}

	iter := p.model(req).GenerateContentStream(ctx, genai.Text(req.Prompt))

	out := make(chan chat.StreamChunk, 10)

	go func() {
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
		var usage *chat.TokenUsage

		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				send(chat.StreamChunk{Kind: chat.ChunkError, Err: fmt.Errorf("gemini streaming error: %w", err)})
				return
			}

			if !started {
				started = true
				if !send(chat.StreamChunk{Kind: chat.ChunkStarted}) {
					return
				}
			}

			if resp.UsageMetadata != nil {
				usage = usageFrom(resp)
			}

			if text := extractText(resp); text != "" {
				if !send(chat.StreamChunk{Kind: chat.ChunkTextDelta, Text: text}) {
					return
				}
			}
		}

		// FullText is left empty: the consumer assembles the final answer
		// from the deltas it accumulated.
		send(chat.StreamChunk{Kind: chat.ChunkComplete, Usage: usage})
	}()

	return out, nil
}

func (p *Provider) model(req *services.ReplyRequest) *genai.GenerativeModel {
	model := p.client.GenerativeModel(req.Model)

	if req.System != nil {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(*req.System)},
		}
	}

	if req.MaxTokens > 0 {
		maxTokens := int32(req.MaxTokens)
		model.GenerationConfig = genai.GenerationConfig{
			MaxOutputTokens: &maxTokens,
		}
	}

	return model
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

func usageFrom(resp *genai.GenerateContentResponse) *chat.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	return &chat.TokenUsage{
		PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
	}
}
