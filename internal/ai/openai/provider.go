// Package openai analyzes pitch decks with OpenAI chat completions, or any
// OpenAI-compatible endpoint reachable through a base URL override.
package openai

import (
	"context"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kiranshivaraju/pitchlens/internal/ai/prompt"
	"github.com/kiranshivaraju/pitchlens/internal/config"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

const maxTokens = 2048

// Provider implements models.Analyst using the chat completions API.
type Provider struct {
	client *goopenai.Client
	model  string
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Provider{client: goopenai.NewClientWithConfig(clientCfg), model: cfg.Model}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error) {
	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: maxTokens,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: prompt.Format(req.PromptTemplate, req.PitchText, req.WebsiteText),
			},
		},
	})
	if err != nil {
		return models.AnalysisResult{}, prompt.CallError(err)
	}
	if len(resp.Choices) == 0 {
		return models.AnalysisResult{}, prompt.Blocked("no choices returned")
	}

	choice := resp.Choices[0]
	switch {
	case choice.Message.Refusal != "":
		return models.AnalysisResult{}, prompt.Blocked(choice.Message.Refusal)
	case choice.FinishReason == goopenai.FinishReasonContentFilter:
		return models.AnalysisResult{}, prompt.Blocked(string(choice.FinishReason))
	}
	return prompt.Parse(choice.Message.Content)
}

var _ models.Analyst = (*Provider)(nil)
