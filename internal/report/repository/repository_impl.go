package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/traffictuner/traffictuner/internal/report/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, report *domain.Report) error {
	return db.WithContext(ctx).Create(report).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Report, error) {
	var report domain.Report
	err := db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repo) ListByDomain(ctx context.Context, db *gorm.DB, domainID snowflake.ID, offset, limit int) ([]domain.Report, error) {
	var list []domain.Report
	err := db.WithContext(ctx).
		Where("domain_id = ?", domainID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repo) CountByDomain(ctx context.Context, db *gorm.DB, domainID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("domain_id = ?", domainID).
		Count(&count).Error
	return count, err
}

func (r *repo) RecentScores(ctx context.Context, db *gorm.DB, domainID snowflake.ID, limit int) ([]domain.ScorePoint, error) {
	var points []domain.ScorePoint
	err := db.WithContext(ctx).
		Model(&domain.Report{}).
		Select("id AS report_id, seo_score, aeo_score, overall_score, created_at").
		Where("domain_id = ?", domainID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Scan(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}
