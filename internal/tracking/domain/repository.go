package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, c *TrackingConfiguration) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*TrackingConfiguration, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]TrackingConfiguration, error)
	// ListForDomain returns the user's configurations scoped to domainID
	// plus those scoped to all domains, ordered by creation time.
	ListForDomain(ctx context.Context, db *gorm.DB, userID, domainID snowflake.ID, activeOnly bool) ([]TrackingConfiguration, error)
	// HasActiveConflict reports whether another active configuration for
	// the same user and platform overlaps the given domain scope. A nil
	// scope applies to all domains and overlaps everything.
	HasActiveConflict(ctx context.Context, db *gorm.DB, userID snowflake.ID, platform string, domainID *snowflake.ID, excludeID snowflake.ID) (bool, error)
	UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	// SetActive flips is_active for the user's configurations in ids and
	// returns how many rows changed.
	SetActive(ctx context.Context, db *gorm.DB, userID snowflake.ID, ids []snowflake.ID, active bool) (int64, error)
}
