package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/ai/gemini"
	"github.com/spigell/hh-interviewer/internal/ai/openai"
	"github.com/spigell/hh-interviewer/internal/secrets"
)

const (
	providerOpenAI = "openai"
	providerGemini = "gemini"
)

func newGateway(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Gateway, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", providerOpenAI:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			File:  cfg.OpenAI.APIKeyFile,
			Value: cfg.OpenAI.APIKey,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (or set ai.openai.api-key-file)", err)
		}

		client, err := openai.New(openai.Config{
			APIKey:       apiKey,
			Model:        cfg.OpenAI.Model,
			BaseURL:      cfg.OpenAI.BaseURL,
			MaxLogLength: cfg.OpenAI.MaxLogLength,
		}, logger)
		if err != nil {
			return nil, err
		}

		logger.Info("using completion gateway",
			zap.String("provider", providerOpenAI),
			zap.String("model", client.Model()),
		)
		return client, nil

	case providerGemini:
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (or set ai.gemini.api-key-file)", err)
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, cfg.Gemini.MaxLogLength, logger)
		if err != nil {
			return nil, err
		}

		logger.Info("using completion gateway",
			zap.String("provider", providerGemini),
			zap.String("model", generator.Model()),
			zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
		)
		return generator, nil

	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}
