package ai

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/pitchlens/internal/ai/gemini"
	"github.com/kiranshivaraju/pitchlens/internal/ai/mock"
	"github.com/kiranshivaraju/pitchlens/internal/ai/openai"
	"github.com/kiranshivaraju/pitchlens/internal/ai/prompt"
	"github.com/kiranshivaraju/pitchlens/internal/config"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

// NewAnalyst constructs the configured provider, wrapped in a circuit breaker when enabled.
// Called once at worker startup.
func NewAnalyst(ctx context.Context, cfg config.AIConfig) (models.Analyst, error) {
	var (
		analyst models.Analyst
		err     error
	)
	switch cfg.Provider {
	case "gemini":
		analyst, err = gemini.NewProvider(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
	case "openai":
		analyst = openai.NewProvider(cfg.OpenAI)
	case "mock":
		analyst = mock.NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gemini, openai, mock", cfg.Provider)
	}
	return WithBreaker(analyst, cfg.Breaker), nil
}

// PromptTemplate returns the template from PROMPT_TEMPLATE_FILE, or the built-in one.
func PromptTemplate(cfg config.AIConfig) (string, error) {
	if cfg.PromptFile == "" {
		return prompt.DefaultTemplate, nil
	}
	return prompt.LoadTemplate(cfg.PromptFile)
}
