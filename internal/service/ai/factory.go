package ai

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/config"
)

// NewFromConfig builds the Client selected by cfg. When no provider is configured it
// returns Unavailable so the conversation still answers with fallback messages.
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (Client, error) {
	provider := cfg.ResolveProvider()
	logger := log.With().Str("component", "ai").Str("provider", provider).Logger()

	switch provider {
	case config.ProviderArk:
		chatModel, err := cfg.Ark.NewChatModel(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create ark chat model")
		}
		client, err := NewChainClient(ctx, chatModel, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("model", cfg.Ark.Model).Msg("remote inference ready")
		return client, nil

	case config.ProviderOpenAI:
		client, err := NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("model", client.model).Msg("remote inference ready")
		return client, nil

	case config.ProviderFunction:
		client, err := NewFunctionClient(FunctionConfig{
			URL:     cfg.Function.URL,
			Token:   cfg.Function.Token,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("url", client.url).Msg("remote inference ready")
		return client, nil

	case config.ProviderNone:
		logger.Warn().Msg("no remote inference configured, every reply will be a fallback message")
		return Unavailable{}, nil

	default:
		return nil, errors.Errorf("unknown ai provider %q", provider)
	}
}
