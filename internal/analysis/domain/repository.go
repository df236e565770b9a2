package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CreateRun(ctx context.Context, db *gorm.DB, run *AnalysisRun) error
	FindRunByRunID(ctx context.Context, db *gorm.DB, runID string) (*AnalysisRun, error)
	ListRunsByDomain(ctx context.Context, db *gorm.DB, domainID snowflake.ID, limit int) ([]AnalysisRun, error)
	ListRunsByState(ctx context.Context, db *gorm.DB, state string, limit int) ([]AnalysisRun, error)
	HasNonTerminalRun(ctx context.Context, db *gorm.DB, domainID snowflake.ID) (bool, error)
	// MarkRunning moves a queued run to running; returns false when the
	// run was not queued.
	MarkRunning(ctx context.Context, db *gorm.DB, runID string, at time.Time) (bool, error)
	MarkFinished(ctx context.Context, db *gorm.DB, runID, state, errorDetail string, at time.Time) error
}
