package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Receipt acknowledges an accepted analysis request.
type Receipt struct {
	RunID            string `json:"run_id"`
	CreditsRemaining int64  `json:"credits_remaining"`
}

type Service interface {
	// RequestAnalysis debits one credit, moves the domain to analyzing
	// and queues a run, all in one transaction. A domain with a run in
	// flight rejects the request; a failed run refunds the credit.
	RequestAnalysis(ctx context.Context, userID, domainID snowflake.ID, analysisType string) (*Receipt, error)
	GetRun(ctx context.Context, userID snowflake.ID, runID string) (*AnalysisRun, error)
	ListRuns(ctx context.Context, userID, domainID snowflake.ID) ([]AnalysisRun, error)
}
