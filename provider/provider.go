package provider

import (
	"context"
	"errors"

	"github.com/docsage/docsage/config"
	local_provider "github.com/docsage/docsage/provider/local"
	openai_provider "github.com/docsage/docsage/provider/openai"
)

// Provider is the interface all model backends must satisfy. Generation is
// greedy and deterministic for a given prompt; embeddings are batch-oriented.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxNewTokens int) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates a model backend based on the provided configuration.
// The backend is selected once at startup, never per-request.
func NewProvider(cfg config.ProviderConfig) (Provider, error) {
	switch cfg.Kind {
	case "openai":
		if cfg.APIKey == "" {
			return nil, errors.New("openai provider requires an API key")
		}
		return openai_provider.NewClient(
			cfg.APIKey,
			cfg.Model,
			cfg.EmbeddingModel,
			cfg.Timeout,
		), nil
	case "local":
		return local_provider.NewClient(
			cfg.BaseURL,
			cfg.Model,
			cfg.EmbeddingModel,
			cfg.MaxInputTokens,
			cfg.Timeout,
		)
	default:
		return nil, errors.New("unsupported model provider: " + cfg.Kind)
	}
}
