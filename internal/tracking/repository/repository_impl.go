package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/traffictuner/traffictuner/internal/tracking/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, c *domain.TrackingConfiguration) error {
	return db.WithContext(ctx).Create(c).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.TrackingConfiguration, error) {
	var c domain.TrackingConfiguration
	err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.TrackingConfiguration, error) {
	var list []domain.TrackingConfiguration
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repo) ListForDomain(ctx context.Context, db *gorm.DB, userID, domainID snowflake.ID, activeOnly bool) ([]domain.TrackingConfiguration, error) {
	q := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("domain_id = ? OR domain_id IS NULL", domainID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var list []domain.TrackingConfiguration
	err := q.Order("created_at ASC, id ASC").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repo) HasActiveConflict(ctx context.Context, db *gorm.DB, userID snowflake.ID, platform string, domainID *snowflake.ID, excludeID snowflake.ID) (bool, error) {
	q := db.WithContext(ctx).
		Model(&domain.TrackingConfiguration{}).
		Where("user_id = ? AND platform = ? AND is_active = ?", userID, platform, true)
	if domainID != nil {
		// A global configuration overlaps every domain scope; a scoped
		// one only overlaps its own domain.
		q = q.Where("domain_id = ? OR domain_id IS NULL", *domainID)
	}
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	tx := db.WithContext(ctx).
		Model(&domain.TrackingConfiguration{}).
		Where("id = ?", id).
		Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrConfigNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.TrackingConfiguration{}).Error
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, userID snowflake.ID, ids []snowflake.ID, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := db.WithContext(ctx).
		Model(&domain.TrackingConfiguration{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Where("is_active <> ?", active).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}
