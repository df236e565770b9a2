package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/traffictuner/traffictuner/internal/credits/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindAccountByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.CreditAccount, error) {
	var account domain.CreditAccount
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repo) CreateAccount(ctx context.Context, db *gorm.DB, account *domain.CreditAccount) error {
	return db.WithContext(ctx).Create(account).Error
}

func (r *repo) InsertEntry(ctx context.Context, db *gorm.DB, entry *domain.CreditEntry) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO credit_entries (
			id, account_id, amount, kind, reference, description, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, reference, kind) DO NOTHING`,
		entry.ID,
		entry.AccountID,
		entry.Amount,
		entry.Kind,
		entry.Reference,
		entry.Description,
		entry.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) AdjustBalance(ctx context.Context, db *gorm.DB, accountID snowflake.ID, delta int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE credit_accounts
		SET balance = balance + ?, updated_at = ?
		WHERE id = ? AND balance + ? >= 0`,
		delta,
		time.Now().UTC(),
		accountID,
		delta,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListEntries(ctx context.Context, db *gorm.DB, accountID snowflake.ID, limit int) ([]domain.CreditEntry, error) {
	var entries []domain.CreditEntry
	query := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
