package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	CountUsers(ctx context.Context, db *gorm.DB) (int64, error)
	CountUsersSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error)
	CountDomainsByStatus(ctx context.Context, db *gorm.DB) (map[string]int64, error)
	CountRunsByState(ctx context.Context, db *gorm.DB) (map[string]int64, error)
	SumBalances(ctx context.Context, db *gorm.DB) (int64, error)
	// SumDebitsSince returns consumed credits as a positive number.
	SumDebitsSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error)
}
