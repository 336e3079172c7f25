package mock

import (
	"context"
	"sync/atomic"

	"github.com/kiranshivaraju/pitchlens/internal/ai/prompt"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

// MockProvider satisfies models.Analyst for tests and for AI_PROVIDER=mock.
type MockProvider struct {
	Name_       string
	AnalyzeFunc func(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error)

	calls atomic.Int64
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error) {
	m.calls.Add(1)
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, req)
	}
	return models.AnalysisResult{}, nil
}

// Calls reports how many times Analyze has been invoked.
func (m *MockProvider) Calls() int64 { return m.calls.Load() }

// SampleResult is the canned analysis returned by NewMockProvider.
func SampleResult() models.AnalysisResult {
	return models.AnalysisResult{
		CompanySummary: "Mock company builds software for testing. It has no real customers.",
		Strengths:      []string{"Deterministic output", "Zero latency", "No API key required"},
		Weaknesses:     []string{"Not a real model", "Ignores the deck", "Fixed verdict"},
		Verdict:        "Needs More Traction",
		Justification:  "Simulated verdict from the mock provider.",
	}
}

// NewMockProvider returns a MockProvider that always succeeds with SampleResult.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		AnalyzeFunc: func(ctx context.Context, _ models.AnalysisRequest) (models.AnalysisResult, error) {
			if err := ctx.Err(); err != nil {
				return models.AnalysisResult{}, prompt.CallError(err)
			}
			return SampleResult(), nil
		},
	}
}

// NewReplyProvider returns a MockProvider that feeds a raw model reply through prompt.Parse.
func NewReplyProvider(reply string) *MockProvider {
	return &MockProvider{
		Name_: "mock-reply",
		AnalyzeFunc: func(_ context.Context, _ models.AnalysisRequest) (models.AnalysisResult, error) {
			return prompt.Parse(reply)
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		AnalyzeFunc: func(_ context.Context, _ models.AnalysisRequest) (models.AnalysisResult, error) {
			return models.AnalysisResult{}, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		AnalyzeFunc: func(ctx context.Context, _ models.AnalysisRequest) (models.AnalysisResult, error) {
			<-ctx.Done()
			return models.AnalysisResult{}, prompt.CallError(ctx.Err())
		},
	}
}

var _ models.Analyst = (*MockProvider)(nil)
