package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/pitchlens/internal/ai/openai"
	"github.com/kiranshivaraju/pitchlens/internal/ai/prompt"
	"github.com/kiranshivaraju/pitchlens/internal/config"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

const validReply = `{"company_summary":"Acme sells rockets. It is early.","strengths":["a","b","c"],"weaknesses":["d","e","f"],"verdict":"Pass","justification":"Too early."}`

func completionServer(t *testing.T, handler func(body map[string]any) (int, any)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		status, payload := handler(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func completion(content, finish, refusal string) map[string]any {
	msg := map[string]any{"role": "assistant", "content": content}
	if refusal != "" {
		msg["refusal"] = refusal
	}
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "gpt-4o-mini",
		"choices": []any{map[string]any{"index": 0, "message": msg, "finish_reason": finish}},
	}
}

func newProvider(ts *httptest.Server) *openai.Provider {
	return openai.NewProvider(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: ts.URL + "/v1"})
}

func request() models.AnalysisRequest {
	return models.AnalysisRequest{PitchText: "deck", WebsiteText: "site", PromptTemplate: prompt.DefaultTemplate}
}

func TestAnalyze_Success(t *testing.T) {
	ts := completionServer(t, func(body map[string]any) (int, any) {
		assert.Equal(t, "gpt-4o-mini", body["model"])
		msgs := body["messages"].([]any)
		content := msgs[0].(map[string]any)["content"].(string)
		assert.Contains(t, content, `Pitch Deck Text: "deck"`)
		assert.Contains(t, content, `Website Content: "site"`)
		return http.StatusOK, completion("```json\n"+validReply+"\n```", "stop", "")
	})

	res, err := newProvider(ts).Analyze(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "Pass", res.Verdict)
	assert.Equal(t, []string{"a", "b", "c"}, res.Strengths)
}

func TestAnalyze_Refusal(t *testing.T) {
	ts := completionServer(t, func(map[string]any) (int, any) {
		return http.StatusOK, completion("", "stop", "I can't help with that.")
	})

	_, err := newProvider(ts).Analyze(context.Background(), request())
	assert.ErrorIs(t, err, prompt.ErrResponseBlocked)
	assert.Contains(t, err.Error(), "I can't help with that.")
}

func TestAnalyze_ContentFilter(t *testing.T) {
	ts := completionServer(t, func(map[string]any) (int, any) {
		return http.StatusOK, completion("", "content_filter", "")
	})

	_, err := newProvider(ts).Analyze(context.Background(), request())
	assert.ErrorIs(t, err, prompt.ErrResponseBlocked)
}

func TestAnalyze_EmptyReply(t *testing.T) {
	ts := completionServer(t, func(map[string]any) (int, any) {
		return http.StatusOK, completion("  ", "stop", "")
	})

	_, err := newProvider(ts).Analyze(context.Background(), request())
	assert.ErrorIs(t, err, prompt.ErrEmptyResponse)
}

func TestAnalyze_MalformedReply(t *testing.T) {
	ts := completionServer(t, func(map[string]any) (int, any) {
		return http.StatusOK, completion("Looks promising!", "stop", "")
	})

	_, err := newProvider(ts).Analyze(context.Background(), request())
	assert.ErrorIs(t, err, prompt.ErrInvalidResponse)
}

func TestAnalyze_ServerError(t *testing.T) {
	ts := completionServer(t, func(map[string]any) (int, any) {
		return http.StatusInternalServerError, map[string]any{
			"error": map[string]any{"message": "boom", "type": "server_error"},
		}
	})

	_, err := newProvider(ts).Analyze(context.Background(), request())
	assert.ErrorIs(t, err, prompt.ErrProviderUnavailable)
}

func TestAnalyze_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newProvider(ts).Analyze(ctx, request())
	assert.ErrorIs(t, err, prompt.ErrInferenceTimeout)
}

func TestName(t *testing.T) {
	assert.Equal(t, "openai", openai.NewProvider(config.OpenAIConfig{}).Name())
}
