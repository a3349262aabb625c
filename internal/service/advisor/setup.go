package advisor

import (
	"context"
	"log/slog"

	"confidant/internal/config"
	"confidant/internal/provider/anthropic"
	"confidant/internal/provider/gemini"
	"confidant/internal/provider/lorem"
)

// SetupProviders builds the provider registry from configuration. Providers
// without credentials are skipped, not fatal; an empty registry surfaces
// later as a no-provider error on the first turn.
func SetupProviders(ctx context.Context, cfg *config.Config, logger *slog.Logger) *ProviderRegistry {
	registry := NewProviderRegistry(cfg.DefaultProvider)

	if cfg.AnthropicAPIKey != "" {
		provider, err := anthropic.NewProvider(cfg.AnthropicAPIKey)
		if err != nil {
			logger.Error("anthropic provider setup failed", "error", err)
		} else {
			registry.Register(provider)
			logger.Info("registered provider", "provider", "anthropic")
		}
	}

	if cfg.GeminiAPIKey != "" {
		provider, err := gemini.NewProvider(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Error("gemini provider setup failed", "error", err)
		} else {
			registry.Register(provider)
			logger.Info("registered provider", "provider", "gemini")
		}
	}

	if cfg.Environment != "prod" {
		registry.Register(lorem.NewProvider())
		logger.Info("registered provider", "provider", "lorem")
	}

	names := registry.Names()
	if len(names) == 0 {
		logger.Warn("no chat providers configured")
	}

	return registry
}
