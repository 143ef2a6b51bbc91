package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/config"
)

// NewChatModel creates the tool-calling chat model for the configured provider.
func NewChatModel(ctx context.Context, cfg config.AIConfig) (model.ToolCallingChatModel, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		chatModel, err := NewArkModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create ark chat model: %w", err)
		}
		slog.Info("chat model ready", "provider", cfg.Provider, "model", cfg.Model)
		return chatModel, nil
	case config.ProviderOpenAI:
		chatModel, err := NewOpenAICompatible(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai-compatible chat model: %w", err)
		}
		slog.Info("chat model ready", "provider", cfg.Provider, "model", cfg.OpenAIModel, "baseURL", cfg.OpenAIBaseURL)
		return chatModel, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}
}
