package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, d *Domain) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Domain, error)
	FindByUserAndURL(ctx context.Context, db *gorm.DB, userID snowflake.ID, url string) (*Domain, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Domain, error)
	// TransitionStatus moves id to a new status only when the row is in
	// one of the expected prior statuses; returns false otherwise. This
	// is the single-writer discipline for the status field.
	TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, to string, from ...string) (bool, error)
	UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
}
