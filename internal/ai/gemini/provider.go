// Package gemini analyzes pitch decks with Google's Gemini models.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/kiranshivaraju/pitchlens/internal/ai/prompt"
	"github.com/kiranshivaraju/pitchlens/internal/config"
	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

// Provider implements models.Analyst using the Gemini API.
type Provider struct {
	client *genai.Client
	model  string
}

func NewProvider(ctx context.Context, cfg config.GeminiConfig) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Provider{client: client, model: cfg.Model}, nil
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error) {
	text := prompt.Format(req.PromptTemplate, req.PitchText, req.WebsiteText)

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(text), generateConfig())
	if err != nil {
		return models.AnalysisResult{}, prompt.CallError(err)
	}
	if reason := blockReason(resp); reason != "" {
		return models.AnalysisResult{}, prompt.Blocked(reason)
	}
	return prompt.Parse(resp.Text())
}

// generateConfig disables every safety filter. Pitch decks routinely mention
// weapons, drugs or medical topics that would otherwise trip them.
func generateConfig() *genai.GenerateContentConfig {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	return &genai.GenerateContentConfig{
		SafetySettings:   settings,
		ResponseMIMEType: "application/json",
	}
}

// blockReason returns a non-empty description when the response carries no content parts.
func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return "no response"
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		if fb.BlockReasonMessage != "" {
			return fmt.Sprintf("%s: %s", fb.BlockReason, fb.BlockReasonMessage)
		}
		return string(fb.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "no candidates returned"
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		if cand.FinishReason != "" {
			return strings.ToLower(string(cand.FinishReason))
		}
		return "no content returned"
	}
	return ""
}

var _ models.Analyst = (*Provider)(nil)
