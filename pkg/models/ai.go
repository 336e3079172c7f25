// Package models contains shared data models used across the PitchLens codebase.
package models

import "context"

// Analyst is the core interface that all hosted-model integrations must implement.
// Never call specific AI providers directly; inject this interface.
type Analyst interface {
	// Analyze formats the prompt with both text blobs, makes a single model call and
	// parses the reply into an AnalysisResult.
	Analyze(ctx context.Context, req AnalysisRequest) (AnalysisResult, error)
	// Name returns the provider identifier (e.g., "gemini", "openai").
	Name() string
}

// AnalysisRequest is the input to an analysis call.
type AnalysisRequest struct {
	PitchText      string
	WebsiteText    string
	PromptTemplate string
}
