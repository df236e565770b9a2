package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service is the credit ledger. Every mutation is transactional: the entry
// row and the balance move together or not at all. Mutations are idempotent
// per (account, reference, kind); replays succeed without moving the
// balance twice.
type Service interface {
	EnsureAccount(ctx context.Context, userID snowflake.ID) (*CreditAccount, error)
	Grant(ctx context.Context, userID snowflake.ID, amount int64, reference, description string) error
	Debit(ctx context.Context, userID snowflake.ID, amount int64, reference, description string) error
	Refund(ctx context.Context, userID snowflake.ID, amount int64, reference, description string) error
	// DebitTx and RefundTx run inside the caller's open transaction so a
	// balance move can commit atomically with writes in other tables.
	DebitTx(ctx context.Context, tx *gorm.DB, userID snowflake.ID, amount int64, reference, description string) error
	RefundTx(ctx context.Context, tx *gorm.DB, userID snowflake.ID, amount int64, reference, description string) error
	Balance(ctx context.Context, userID snowflake.ID) (int64, error)
	History(ctx context.Context, userID snowflake.ID, limit int) ([]CreditEntry, error)
}
