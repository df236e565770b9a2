// Package engine defines the scoring engine boundary. The orchestrator
// treats it as an opaque, possibly slow, possibly failing dependency.
package engine

import "context"

// FactorScore is one scored aspect of a section.
type FactorScore struct {
	Score  float64 `json:"score"`
	Status string  `json:"status"`
}

// Recommendation is one suggested improvement.
type Recommendation struct {
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// Section is the breakdown of one scoring dimension.
type Section struct {
	Score           float64                `json:"score"`
	Factors         map[string]FactorScore `json:"factors"`
	Recommendations []Recommendation       `json:"recommendations"`
}

// Result is the full outcome of one analysis.
type Result struct {
	SEOScore     float64
	AEOScore     float64
	OverallScore float64

	SEO Section
	AEO Section

	// Recommendations combines both sections' suggestions.
	Recommendations []Recommendation

	LLMSFileContent string
	Summary         string
}

type Engine interface {
	Analyze(ctx context.Context, url, analysisType string) (*Result, error)
}
