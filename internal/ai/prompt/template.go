// Package prompt holds the model contract shared by every provider: the prompt template,
// reply cleaning and parsing into models.AnalysisResult, and the sentinel errors.
package prompt

import (
	"fmt"
	"os"
	"strings"
)

// Placeholders substituted by Format.
const (
	PitchSlot   = "{pitch_deck_text}"
	WebsiteSlot = "{website_text}"
)

// DefaultTemplate asks the model for the fixed AnalysisResult shape.
const DefaultTemplate = `
You are "VentureGPT", an expert AI analyst for a top-tier venture capital firm.
Your task is to analyze a startup based on its pitch deck text and website content.
You must return your analysis in a structured JSON object.

The JSON object must have the following keys:
- "company_summary": A brief, 2-sentence overview of what the company does.
- "strengths": An array of 3-4 strings, each highlighting a key strength.
- "weaknesses": An array of 3-4 strings, each identifying a key risk or weakness.
- "verdict": A short string with your final recommendation (e.g., "Strong Prospect", "Needs More Traction", "High Risk, High Reward", "Pass").
- "justification": A one-sentence justification for your verdict.

Do not include any introductory text or explanations outside of the JSON object.

---
Analyze the following content:
Pitch Deck Text: "{pitch_deck_text}"
Website Content: "{website_text}"
---
`

// Format embeds both text blobs into the template in a single pass, so slot markers
// inside the blobs are left untouched.
func Format(template, pitchText, websiteText string) string {
	return strings.NewReplacer(PitchSlot, pitchText, WebsiteSlot, websiteText).Replace(template)
}

// LoadTemplate reads a template file and checks that it carries both slots.
func LoadTemplate(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt template: %w", err)
	}
	tmpl := string(b)
	if err := ValidateTemplate(tmpl); err != nil {
		return "", fmt.Errorf("prompt template %s: %w", path, err)
	}
	return tmpl, nil
}

// ValidateTemplate fails if either slot is missing.
func ValidateTemplate(tmpl string) error {
	for _, slot := range []string{PitchSlot, WebsiteSlot} {
		if !strings.Contains(tmpl, slot) {
			return fmt.Errorf("missing placeholder %s", slot)
		}
	}
	return nil
}
