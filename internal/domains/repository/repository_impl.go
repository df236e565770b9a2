package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/traffictuner/traffictuner/internal/domains/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, d *domain.Domain) error {
	return db.WithContext(ctx).Create(d).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Domain, error) {
	var d domain.Domain
	err := db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrDomainNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repo) FindByUserAndURL(ctx context.Context, db *gorm.DB, userID snowflake.ID, url string) (*domain.Domain, error) {
	var d domain.Domain
	err := db.WithContext(ctx).Where("user_id = ? AND url = ?", userID, url).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrDomainNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.Domain, error) {
	var list []domain.Domain
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repo) TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, to string, from ...string) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE domains SET status = ?, updated_at = ? WHERE id = ? AND status IN ?`,
		to, time.Now().UTC(), id, from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	tx := db.WithContext(ctx).Model(&domain.Domain{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrDomainNotFound
	}
	return nil
}
