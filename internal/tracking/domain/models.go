// Package domain contains core types for stored tracking configurations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TrackingConfiguration is one stored platform credential. A nil DomainID
// means the configuration applies to all of the user's domains.
type TrackingConfiguration struct {
	ID         snowflake.ID  `gorm:"primaryKey"`
	UserID     snowflake.ID  `gorm:"column:user_id;not null;index"`
	Platform   string        `gorm:"column:platform;type:text;not null"`
	TrackingID string        `gorm:"column:tracking_id;type:text;not null"`
	Name       string        `gorm:"column:name;type:text;not null"`
	DomainID   *snowflake.ID `gorm:"column:domain_id;index"`
	IsActive   bool          `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TrackingConfiguration) TableName() string { return "tracking_configurations" }

// Global reports whether the configuration applies to all domains.
func (c TrackingConfiguration) Global() bool { return c.DomainID == nil }
