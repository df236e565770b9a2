package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"github.com/traffictuner/traffictuner/internal/adminstats/domain"
	"github.com/traffictuner/traffictuner/internal/adminstats/repository"
	analysisdomain "github.com/traffictuner/traffictuner/internal/analysis/domain"
	authdomain "github.com/traffictuner/traffictuner/internal/auth/domain"
	authrepository "github.com/traffictuner/traffictuner/internal/auth/repository"
	authservice "github.com/traffictuner/traffictuner/internal/auth/service"
	"github.com/traffictuner/traffictuner/internal/clock"
	creditsdomain "github.com/traffictuner/traffictuner/internal/credits/domain"
	creditsrepository "github.com/traffictuner/traffictuner/internal/credits/repository"
	creditsservice "github.com/traffictuner/traffictuner/internal/credits/service"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
	"github.com/traffictuner/traffictuner/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	svc     domain.Service
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
	credits creditsdomain.Service
	adminID snowflake.ID
	userID  snowflake.ID
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&authdomain.User{},
		&authdomain.Session{},
		&creditsdomain.CreditAccount{},
		&creditsdomain.CreditEntry{},
		&domainsdomain.Domain{},
		&analysisdomain.AnalysisRun{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC))

	userRepo, sessionRepo := authrepository.New(dbConn)
	users := authservice.New(zap.NewNop(), userRepo, sessionRepo, node)
	credits := creditsservice.New(creditsservice.Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  creditsrepository.Provide(),
	})

	admin := authdomain.User{
		ID:           node.Generate(),
		Email:        "admin@example.com",
		Name:         "admin",
		PasswordHash: "x",
		Role:         authdomain.RoleAdmin,
	}
	require.NoError(t, dbConn.Create(&admin).Error)
	user := authdomain.User{
		ID:           node.Generate(),
		Email:        "user@example.com",
		Name:         "user",
		PasswordHash: "x",
		Role:         authdomain.RoleUser,
	}
	require.NoError(t, dbConn.Create(&user).Error)

	svc := New(Params{
		DB:      dbConn,
		Log:     zap.NewNop(),
		Clock:   fake,
		Repo:    repository.Provide(),
		Credits: credits,
		Users:   users,
	})

	return &harness{
		svc:     svc,
		db:      dbConn,
		node:    node,
		clock:   fake,
		credits: credits,
		adminID: admin.ID,
		userID:  user.ID,
	}
}

func TestDashboardAggregates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, status := range []string{
		domainsdomain.StatusActive,
		domainsdomain.StatusActive,
		domainsdomain.StatusError,
	} {
		require.NoError(t, h.db.Create(&domainsdomain.Domain{
			ID:          h.node.Generate(),
			UserID:      h.userID,
			URL:         "https://site-" + h.node.Generate().String() + ".example.com",
			DisplayName: "site",
			Slug:        "site",
			Status:      status,
		}).Error)
	}

	for _, state := range []string{
		analysisdomain.RunStateSucceeded,
		analysisdomain.RunStateFailed,
		analysisdomain.RunStateRunning,
	} {
		require.NoError(t, h.db.Create(&analysisdomain.AnalysisRun{
			ID:           h.node.Generate(),
			RunID:        h.node.Generate().String(),
			DomainID:     h.node.Generate(),
			UserID:       h.userID,
			AnalysisType: "full",
			State:        state,
			CreditCost:   1,
		}).Error)
	}

	require.NoError(t, h.credits.Grant(ctx, h.userID, 5, "grant:1", "test grant"))
	require.NoError(t, h.credits.Debit(ctx, h.userID, 2, "run:1", "analysis"))

	stats, err := h.svc.Dashboard(ctx)
	require.NoError(t, err)

	require.Equal(t, int64(2), stats.Users.Total)
	require.Equal(t, int64(3), stats.Domains.Total)
	require.Equal(t, int64(2), stats.Domains.ByStatus[domainsdomain.StatusActive])
	require.Equal(t, int64(1), stats.Domains.ByStatus[domainsdomain.StatusError])
	require.Equal(t, int64(3), stats.Analyses.Total)
	require.Equal(t, int64(1), stats.Analyses.Succeeded)
	require.Equal(t, int64(1), stats.Analyses.Failed)
	require.Equal(t, int64(1), stats.Analyses.InFlight)
	require.Equal(t, int64(3), stats.Credits.OutstandingBalance)
	require.Equal(t, int64(2), stats.Credits.ConsumedToday)
}

func TestGrantCreditsMovesBalance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	balance, err := h.svc.GrantCredits(ctx, h.adminID, domain.GrantRequest{
		UserID:      h.userID,
		Amount:      10,
		Description: "support goodwill",
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)

	history, err := h.credits.History(ctx, h.userID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, creditsdomain.EntryKindGrant, history[0].Kind)
	require.Equal(t, int64(10), history[0].Amount)
}

func TestGrantCreditsValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.GrantCredits(ctx, h.adminID, domain.GrantRequest{UserID: h.userID, Amount: 0})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = h.svc.GrantCredits(ctx, h.adminID, domain.GrantRequest{UserID: 0, Amount: 5})
	require.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = h.svc.GrantCredits(ctx, h.adminID, domain.GrantRequest{UserID: h.node.Generate(), Amount: 5})
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
