package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/eventease-dev/eventease/internal/config"
	"github.com/eventease-dev/eventease/internal/metrics"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
)

type llmGenerator struct {
	model       llms.Model
	temperature float64
}

// NewGenerator builds a langchaingo backed generator for the configured provider.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	switch cfg.Provider {
	case ProviderGoogleAI, "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
		}
		model, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.GeminiAPIKey),
			googleai.WithDefaultModel(cfg.GeminiModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return NewGeneratorFromModel(model), nil
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
		}
		model, err := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.OpenAIModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return NewGeneratorFromModel(model), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

// NewGeneratorFromModel adapts any langchaingo model.
func NewGeneratorFromModel(model llms.Model) Generator {
	return &llmGenerator{model: model, temperature: 0.7}
}

func (g *llmGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	text, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llms.WithTemperature(g.temperature))
	if err == nil && text == "" {
		err = ErrEmptyResponse
	}
	metrics.ObserveAI("generate", start, err)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return text, nil
}
