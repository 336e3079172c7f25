package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

const (
	minListItems = 3
	maxListItems = 4
)

// Clean strips markdown code fences and surrounding whitespace from a model reply.
func Clean(reply string) string {
	s := strings.ReplaceAll(reply, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// replyShape uses pointers so a missing key can be told apart from an empty one.
type replyShape struct {
	CompanySummary *string   `json:"company_summary"`
	Strengths      *[]string `json:"strengths"`
	Weaknesses     *[]string `json:"weaknesses"`
	Verdict        *string   `json:"verdict"`
	Justification  *string   `json:"justification"`
}

// Parse cleans a raw reply and decodes it into an AnalysisResult, rejecting replies
// that are empty, not JSON, or not of the required shape.
func Parse(reply string) (models.AnalysisResult, error) {
	cleaned := Clean(reply)
	if cleaned == "" {
		return models.AnalysisResult{}, fmt.Errorf("AI analysis failed, %w", ErrEmptyResponse)
	}

	var shape replyShape
	if err := json.Unmarshal([]byte(cleaned), &shape); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("AI analysis failed. Details: %w: invalid JSON format: %v", ErrInvalidResponse, err)
	}

	if err := shape.validate(); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("AI analysis failed. Details: %w: %v", ErrInvalidResponse, err)
	}

	return models.AnalysisResult{
		CompanySummary: strings.TrimSpace(*shape.CompanySummary),
		Strengths:      trimAll(*shape.Strengths),
		Weaknesses:     trimAll(*shape.Weaknesses),
		Verdict:        strings.TrimSpace(*shape.Verdict),
		Justification:  strings.TrimSpace(*shape.Justification),
	}, nil
}

func (r replyShape) validate() error {
	fields := []struct {
		key string
		val *string
	}{
		{"company_summary", r.CompanySummary},
		{"verdict", r.Verdict},
		{"justification", r.Justification},
	}
	for _, f := range fields {
		if f.val == nil || strings.TrimSpace(*f.val) == "" {
			return fmt.Errorf("%q is missing or empty", f.key)
		}
	}
	if err := validateList("strengths", r.Strengths); err != nil {
		return err
	}
	return validateList("weaknesses", r.Weaknesses)
}

func validateList(key string, items *[]string) error {
	if items == nil {
		return fmt.Errorf("%q is missing", key)
	}
	n := len(*items)
	if n < minListItems || n > maxListItems {
		return fmt.Errorf("%q has %d items, want %d-%d", key, n, minListItems, maxListItems)
	}
	for i, s := range *items {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%q item %d is empty", key, i)
		}
	}
	return nil
}

func trimAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
