package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type GrantRequest struct {
	UserID      snowflake.ID
	Amount      int64
	Description string
}

type Service interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	// GrantCredits moves credits to a user through the ledger, recorded
	// against the granting admin.
	GrantCredits(ctx context.Context, adminID snowflake.ID, req GrantRequest) (int64, error)
}
