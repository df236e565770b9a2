// Package domain contains core types for stored analysis reports.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Report is the immutable outcome of one successful analysis run.
// The JSON columns hold the engine's factor breakdowns and
// recommendations as produced; the store never interprets them.
type Report struct {
	ID               snowflake.ID   `gorm:"primaryKey"`
	ReportID         string         `gorm:"column:report_id;type:text;not null;uniqueIndex"`
	RunID            string         `gorm:"column:run_id;type:text;not null"`
	DomainID         snowflake.ID   `gorm:"column:domain_id;not null;index"`
	UserID           snowflake.ID   `gorm:"column:user_id;not null;index"`
	SEOScore         float64        `gorm:"column:seo_score;not null;default:0"`
	AEOScore         float64        `gorm:"column:aeo_score;not null;default:0"`
	OverallScore     float64        `gorm:"column:overall_score;not null;default:0"`
	SEOAnalysis      datatypes.JSON `gorm:"column:seo_analysis"`
	AEOAnalysis      datatypes.JSON `gorm:"column:aeo_analysis"`
	Recommendations  datatypes.JSON `gorm:"column:recommendations"`
	LLMSFileContent  string         `gorm:"column:llms_file_content;type:text;not null;default:''"`
	Summary          string         `gorm:"column:summary;type:text;not null;default:''"`
	ProcessingTimeMS int64          `gorm:"column:processing_time_ms;not null;default:0"`
	CreatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Report) TableName() string { return "analysis_reports" }

// ScorePoint is one sample in a domain's score history.
type ScorePoint struct {
	ReportID     snowflake.ID `json:"report_id"`
	SEOScore     float64      `json:"seo_score"`
	AEOScore     float64      `json:"aeo_score"`
	OverallScore float64      `json:"overall_score"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Page is one page of a domain's report history, newest first.
type Page struct {
	Reports []Report `json:"reports"`
	Total   int64    `json:"total"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
}
