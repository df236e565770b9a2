// Package domain contains core types for the domain registry.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Domain lifecycle states. `analyzing` is entered only together with a
// successful credit debit; any other state may move to `analyzing`.
const (
	StatusActive    = "active"
	StatusAnalyzing = "analyzing"
	StatusError     = "error"
	StatusPaused    = "paused"
)

// Domain is one registered site. Rows are never deleted.
type Domain struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	UserID         snowflake.ID `gorm:"column:user_id;not null;index;uniqueIndex:idx_domains_user_url"`
	URL            string       `gorm:"column:url;type:text;not null;uniqueIndex:idx_domains_user_url"`
	DisplayName    string       `gorm:"column:display_name;type:text;not null"`
	Slug           string       `gorm:"column:slug;type:text;not null"`
	Status         string       `gorm:"column:status;type:text;not null;default:active"`
	SEOScore       *float64     `gorm:"column:seo_score"`
	AEOScore       *float64     `gorm:"column:aeo_score"`
	LatestReportID *snowflake.ID `gorm:"column:latest_report_id"`
	AnalysisCount  int64        `gorm:"column:analysis_count;not null;default:0"`
	LastAnalyzedAt *time.Time   `gorm:"column:last_analyzed_at"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Domain) TableName() string { return "domains" }

// IsAnalyzing reports whether the domain currently holds the analysis
// slot. A domain in this state rejects new analysis requests.
func (d Domain) IsAnalyzing() bool { return d.Status == StatusAnalyzing }

// ValidStatus reports whether s names a known lifecycle state.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusAnalyzing, StatusError, StatusPaused:
		return true
	default:
		return false
	}
}
