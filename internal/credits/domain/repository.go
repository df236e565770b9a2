package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindAccountByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*CreditAccount, error)
	CreateAccount(ctx context.Context, db *gorm.DB, account *CreditAccount) error
	// InsertEntry inserts a ledger row; returns false when the
	// (account, reference, kind) entry already exists.
	InsertEntry(ctx context.Context, db *gorm.DB, entry *CreditEntry) (bool, error)
	// AdjustBalance applies a signed delta; returns false when a debit
	// would take the balance below zero.
	AdjustBalance(ctx context.Context, db *gorm.DB, accountID snowflake.ID, delta int64) (bool, error)
	ListEntries(ctx context.Context, db *gorm.DB, accountID snowflake.ID, limit int) ([]CreditEntry, error)
}
