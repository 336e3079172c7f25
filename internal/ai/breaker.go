package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/kiranshivaraju/pitchlens/internal/ai/prompt"
	"github.com/kiranshivaraju/pitchlens/internal/config"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

// breakerAnalyst stops calling a provider that keeps failing at the transport level.
// Invalid or blocked replies do not count against it.
type breakerAnalyst struct {
	next models.Analyst
	cb   *gobreaker.CircuitBreaker[models.AnalysisResult]
}

// WithBreaker wraps next in a circuit breaker. It returns next unchanged when the
// breaker is disabled.
func WithBreaker(next models.Analyst, cfg config.BreakerConfig) models.Analyst {
	if !cfg.Enabled {
		return next
	}

	settings := gobreaker.Settings{
		Name:    "ai-" + next.Name(),
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !(errors.Is(err, prompt.ErrProviderUnavailable) || errors.Is(err, prompt.ErrInferenceTimeout))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("ai circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &breakerAnalyst{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[models.AnalysisResult](settings),
	}
}

func (b *breakerAnalyst) Name() string { return b.next.Name() }

func (b *breakerAnalyst) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error) {
	res, err := b.cb.Execute(func() (models.AnalysisResult, error) {
		return b.next.Analyze(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return models.AnalysisResult{}, fmt.Errorf("AI analysis failed. Details: %w: %v", prompt.ErrProviderUnavailable, err)
	}
	return res, err
}
