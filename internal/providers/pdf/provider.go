package pdf

import (
	"context"
	"io"
)

// ReportData is the flattened view of one analysis report for export.
type ReportData struct {
	DomainURL    string
	ReportID     string
	GeneratedAt  string
	SEOScore     float64
	AEOScore     float64
	OverallScore float64
	Summary      string

	Recommendations []Recommendation
}

type Recommendation struct {
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

type Provider interface {
	GenerateReport(ctx context.Context, data ReportData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateReport(ctx context.Context, data ReportData) (io.Reader, error) {
	return nil, nil
}
