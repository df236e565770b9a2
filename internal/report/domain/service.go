package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Get(ctx context.Context, userID, id snowflake.ID) (*Report, error)
	ListForDomain(ctx context.Context, userID, domainID snowflake.ID, page, perPage int) (*Page, error)
	// ScoreTrend returns the domain's newest score samples in
	// chronological order, oldest first, for charting.
	ScoreTrend(ctx context.Context, userID, domainID snowflake.ID, limit int) ([]ScorePoint, error)
	ExportPDF(ctx context.Context, userID, id snowflake.ID) ([]byte, error)
}
