package models

// AnalysisResult is the fixed-shape verdict produced by the hosted model.
// Field names are part of the public JSON contract.
type AnalysisResult struct {
	CompanySummary string   `json:"company_summary"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Verdict        string   `json:"verdict"`
	Justification  string   `json:"justification"`
}
