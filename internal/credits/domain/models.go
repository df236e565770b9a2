// Package domain contains core types for the credit ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Entry kinds. The ledger is append-only; balance changes always carry
// a matching entry row.
const (
	EntryKindDebit  = "debit"
	EntryKindRefund = "refund"
	EntryKindGrant  = "grant"
)

// TrialCredits is granted once per user at signup.
const TrialCredits int64 = 3

// CreditAccount holds the spendable balance for one user.
type CreditAccount struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;uniqueIndex"`
	Balance   int64        `gorm:"column:balance;not null;default:0"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CreditAccount) TableName() string { return "credit_accounts" }

// CreditEntry is one immutable ledger row. Amount is signed: negative for
// debits, positive for refunds and grants.
type CreditEntry struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	AccountID   snowflake.ID `gorm:"column:account_id;not null;index;uniqueIndex:idx_credit_entries_account_reference_kind"`
	Amount      int64        `gorm:"column:amount;not null"`
	Kind        string       `gorm:"column:kind;type:text;not null;uniqueIndex:idx_credit_entries_account_reference_kind"`
	Reference   string       `gorm:"column:reference;type:text;not null;uniqueIndex:idx_credit_entries_account_reference_kind"`
	Description string       `gorm:"column:description;type:text;not null"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CreditEntry) TableName() string { return "credit_entries" }
