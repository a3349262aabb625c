package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"confidant/internal/domain/models/chat"
	"confidant/internal/domain/services"
)

const defaultMaxTokens = 4096

// Provider implements services.ChatProvider for Anthropic (Claude) models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Provider{client: &client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// SupportsModel returns true if this provider serves the given model.
// Anthropic models start with "claude-".
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// Reply generates a complete response in one call.
func (p *Provider) Reply(ctx context.Context, req *services.ReplyRequest) (*services.Reply, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model %q is not supported by anthropic provider", req.Model)
	}

	message, err := p.client.Messages.New(ctx, buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	return &services.Reply{
		Text:       extractText(message),
		Model:      string(message.Model),
		StopReason: string(message.StopReason),
		Usage:      usageFrom(message),
	}, nil
}

func buildParams(req *services.ReplyRequest) anthropic.MessageNewParams {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	if req.System != nil {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: *req.System,
			},
		}
	}

	if req.ThinkingEnabled {
		// The budget must stay below max_tokens; thinking shares the output
		// window with the visible answer.
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(maxTokens / 2)
	}

	return params
}

func extractText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, content := range msg.Content {
		if content.Type == "text" {
			sb.WriteString(content.Text)
		}
	}
	return sb.String()
}

func usageFrom(msg *anthropic.Message) *chat.TokenUsage {
	input := int(msg.Usage.InputTokens)
	output := int(msg.Usage.OutputTokens)
	return &chat.TokenUsage{
		PromptTokens:     input,
		CompletionTokens: output,
		TotalTokens:      input + output,
	}
}
