package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kiranshivaraju/pitchlens/internal/ai/mock"
	"github.com/kiranshivaraju/pitchlens/internal/ai/prompt"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() models.AnalysisRequest {
	return models.AnalysisRequest{
		PitchText:      "We sell shovels to gold miners.",
		WebsiteText:    "Shovels for everyone.",
		PromptTemplate: prompt.DefaultTemplate,
	}
}

// --- NewMockProvider ---

func TestNewMockProvider_Name(t *testing.T) {
	p := mock.NewMockProvider()
	assert.Equal(t, "mock", p.Name())
}

func TestNewMockProvider_Analyze(t *testing.T) {
	p := mock.NewMockProvider()
	result, err := p.Analyze(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, mock.SampleResult(), result)
	assert.Len(t, result.Strengths, 3)
	assert.Len(t, result.Weaknesses, 3)
	assert.Equal(t, int64(1), p.Calls())
}

func TestNewMockProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.NewMockProvider().Analyze(ctx, sampleRequest())
	assert.ErrorIs(t, err, prompt.ErrInferenceTimeout)
}

// --- NewReplyProvider ---

func TestNewReplyProvider_ParsesReply(t *testing.T) {
	p := mock.NewReplyProvider("```json\n" + `{"company_summary":"s","strengths":["a","b","c"],"weaknesses":["d","e","f","g"],"verdict":"Pass","justification":"j"}` + "\n```")
	result, err := p.Analyze(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "Pass", result.Verdict)
	assert.Len(t, result.Weaknesses, 4)
}

func TestNewReplyProvider_Malformed(t *testing.T) {
	_, err := mock.NewReplyProvider("not json").Analyze(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, prompt.ErrInvalidResponse)
}

// --- NewFailingProvider ---

func TestNewFailingProvider_Name(t *testing.T) {
	p := mock.NewFailingProvider(prompt.ErrProviderUnavailable)
	assert.Equal(t, "mock-failing", p.Name())
}

func TestNewFailingProvider_Analyze(t *testing.T) {
	p := mock.NewFailingProvider(prompt.ErrProviderUnavailable)
	_, err := p.Analyze(context.Background(), sampleRequest())

	assert.ErrorIs(t, err, prompt.ErrProviderUnavailable)
}

func TestNewFailingProvider_CustomError(t *testing.T) {
	customErr := errors.New("custom AI error")
	p := mock.NewFailingProvider(customErr)

	_, err := p.Analyze(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, customErr)
}

// --- NewTimeoutProvider ---

func TestNewTimeoutProvider_Analyze(t *testing.T) {
	p := mock.NewTimeoutProvider()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Analyze(ctx, sampleRequest())
	assert.ErrorIs(t, err, prompt.ErrInferenceTimeout)
	assert.Equal(t, "mock-timeout", p.Name())
}

// --- Zero-value MockProvider ---

func TestMockProvider_NilFuncs(t *testing.T) {
	p := &mock.MockProvider{Name_: "bare"}

	result, err := p.Analyze(context.Background(), sampleRequest())
	assert.NoError(t, err)
	assert.Equal(t, models.AnalysisResult{}, result)
	assert.Equal(t, int64(1), p.Calls())
}

func TestMockProvider_ImplementsAnalyst(t *testing.T) {
	var _ models.Analyst = mock.NewMockProvider()
	var _ models.Analyst = mock.NewFailingProvider(nil)
	var _ models.Analyst = mock.NewTimeoutProvider()
}
