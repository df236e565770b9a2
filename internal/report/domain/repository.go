package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, r *Report) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Report, error)
	ListByDomain(ctx context.Context, db *gorm.DB, domainID snowflake.ID, offset, limit int) ([]Report, error)
	CountByDomain(ctx context.Context, db *gorm.DB, domainID snowflake.ID) (int64, error)
	// RecentScores returns up to limit of the newest score samples for the
	// domain, newest first.
	RecentScores(ctx context.Context, db *gorm.DB, domainID snowflake.ID, limit int) ([]ScorePoint, error)
}
