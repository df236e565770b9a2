package repository

import (
	"context"
	"time"

	adminstatsdomain "github.com/traffictuner/traffictuner/internal/adminstats/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() adminstatsdomain.Repository {
	return &repo{}
}

func (r *repo) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Table("users").Count(&count).Error
	return count, err
}

func (r *repo) CountUsersSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Table("users").
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *repo) CountDomainsByStatus(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	return countGrouped(ctx, db, "domains", "status")
}

func (r *repo) CountRunsByState(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	return countGrouped(ctx, db, "analysis_runs", "state")
}

func (r *repo) SumBalances(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(balance), 0) FROM credit_accounts`,
	).Scan(&total).Error
	return total, err
}

func (r *repo) SumDebitsSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(-amount), 0)
		 FROM credit_entries
		 WHERE kind = 'debit' AND created_at >= ?`,
		since,
	).Scan(&total).Error
	return total, err
}

func countGrouped(ctx context.Context, db *gorm.DB, table, column string) (map[string]int64, error) {
	var rows []struct {
		Key   string `gorm:"column:key"`
		Count int64  `gorm:"column:count"`
	}
	err := db.WithContext(ctx).Table(table).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}
