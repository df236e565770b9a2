// Package domain contains core types for the analysis orchestrator.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Run states. queued and running are non-terminal; the partial unique
// index on (domain_id) over those states enforces at most one in-flight
// run per domain.
const (
	RunStateQueued    = "queued"
	RunStateRunning   = "running"
	RunStateSucceeded = "succeeded"
	RunStateFailed    = "failed"
)

// CreditCost is debited per analysis request and refunded on failure.
const CreditCost int64 = 1

// AnalysisRun is one execution attempt of the scoring workflow.
type AnalysisRun struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	RunID        string       `gorm:"column:run_id;type:text;not null;uniqueIndex"`
	DomainID     snowflake.ID `gorm:"column:domain_id;not null;index"`
	UserID       snowflake.ID `gorm:"column:user_id;not null"`
	AnalysisType string       `gorm:"column:analysis_type;type:text;not null;default:full"`
	State        string       `gorm:"column:state;type:text;not null;default:queued"`
	CreditCost   int64        `gorm:"column:credit_cost;not null;default:1"`
	ErrorDetail  string       `gorm:"column:error_detail;type:text;not null;default:''"`
	StartedAt    *time.Time   `gorm:"column:started_at"`
	FinishedAt   *time.Time   `gorm:"column:finished_at"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AnalysisRun) TableName() string { return "analysis_runs" }

// Terminal reports whether the run has reached a final state.
func (r AnalysisRun) Terminal() bool {
	return r.State == RunStateSucceeded || r.State == RunStateFailed
}
