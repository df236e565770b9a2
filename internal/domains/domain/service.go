package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Domain, error)
	Get(ctx context.Context, userID, id snowflake.ID) (*Domain, error)
	List(ctx context.Context, userID snowflake.ID) ([]Domain, error)
	// SetPaused toggles the owner-facing paused state. Only
	// active <-> paused moves are allowed here.
	SetPaused(ctx context.Context, userID, id snowflake.ID, paused bool) (*Domain, error)
	Rename(ctx context.Context, userID, id snowflake.ID, displayName string) (*Domain, error)
	// RecordAnalysisResult applies scores and bookkeeping after a run
	// reaches a terminal state.
	RecordAnalysisResult(ctx context.Context, id snowflake.ID, result AnalysisResult) error
}

type CreateRequest struct {
	UserID      snowflake.ID
	URL         string
	DisplayName string
}

type AnalysisResult struct {
	SEOScore       *float64
	AEOScore       *float64
	LatestReportID *snowflake.ID
	AnalyzedAt     time.Time
}
