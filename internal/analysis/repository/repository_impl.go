package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/traffictuner/traffictuner/internal/analysis/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateRun(ctx context.Context, db *gorm.DB, run *domain.AnalysisRun) error {
	return db.WithContext(ctx).Create(run).Error
}

func (r *repo) FindRunByRunID(ctx context.Context, db *gorm.DB, runID string) (*domain.AnalysisRun, error) {
	var run domain.AnalysisRun
	err := db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *repo) ListRunsByDomain(ctx context.Context, db *gorm.DB, domainID snowflake.ID, limit int) ([]domain.AnalysisRun, error) {
	var list []domain.AnalysisRun
	q := db.WithContext(ctx).
		Where("domain_id = ?", domainID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repo) ListRunsByState(ctx context.Context, db *gorm.DB, state string, limit int) ([]domain.AnalysisRun, error) {
	var list []domain.AnalysisRun
	q := db.WithContext(ctx).
		Where("state = ?", state).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repo) HasNonTerminalRun(ctx context.Context, db *gorm.DB, domainID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.AnalysisRun{}).
		Where("domain_id = ? AND state IN ?", domainID, []string{domain.RunStateQueued, domain.RunStateRunning}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) MarkRunning(ctx context.Context, db *gorm.DB, runID string, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE analysis_runs SET state = ?, started_at = ?, updated_at = ? WHERE run_id = ? AND state = ?`,
		domain.RunStateRunning, at, at, runID, domain.RunStateQueued,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkFinished(ctx context.Context, db *gorm.DB, runID, state, errorDetail string, at time.Time) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE analysis_runs SET state = ?, error_detail = ?, finished_at = ?, updated_at = ?
		 WHERE run_id = ? AND state IN ?`,
		state, errorDetail, at, at, runID,
		[]string{domain.RunStateQueued, domain.RunStateRunning},
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}
