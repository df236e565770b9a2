package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/traffictuner/traffictuner/internal/auth/domain"
	"github.com/traffictuner/traffictuner/internal/credits/domain"
	"github.com/traffictuner/traffictuner/internal/credits/repository"
	"github.com/traffictuner/traffictuner/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, snowflake.ID) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&authdomain.User{},
		&domain.CreditAccount{},
		&domain.CreditEntry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	user := authdomain.User{
		ID:           node.Generate(),
		Email:        "user@example.com",
		Name:         "user",
		PasswordHash: "x",
		Role:         authdomain.RoleUser,
	}
	require.NoError(t, dbConn.Create(&user).Error)

	svc := New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, dbConn, user.ID
}

func TestGrantAndBalance(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, userID, domain.TrialCredits, "signup:"+userID.String(), "trial credits"))

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, domain.TrialCredits, balance)
}

func TestGrantIdempotent(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	ref := "signup:" + userID.String()
	require.NoError(t, svc.Grant(ctx, userID, 3, ref, "trial credits"))
	require.NoError(t, svc.Grant(ctx, userID, 3, ref, "trial credits"))

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(3), balance)

	entries, err := svc.History(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestDebitInsufficientCredits(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, userID, 1, "grant:1", "one credit"))

	err := svc.Debit(ctx, userID, 2, "run:abc", "analysis")
	require.ErrorIs(t, err, domain.ErrInsufficientCredits)

	// A rejected debit leaves no ledger row behind.
	entries, err := svc.History(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(1), balance)
}

func TestDebitThenRefundRestoresBalance(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, userID, 3, "grant:1", "trial"))
	require.NoError(t, svc.Debit(ctx, userID, 1, "run:abc", "analysis"))

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(2), balance)

	require.NoError(t, svc.Refund(ctx, userID, 1, "run:abc", "analysis failed"))
	// Replayed refund must not double-credit.
	require.NoError(t, svc.Refund(ctx, userID, 1, "run:abc", "analysis failed"))

	balance, err = svc.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(3), balance)

	entries, err := svc.History(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestMirrorsUserCredits(t *testing.T) {
	svc, dbConn, userID := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, userID, 3, "grant:1", "trial"))
	require.NoError(t, svc.Debit(ctx, userID, 1, "run:abc", "analysis"))

	var user authdomain.User
	require.NoError(t, dbConn.First(&user, "id = ?", userID).Error)
	require.Equal(t, int64(2), user.Credits)
}

func TestValidation(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.Debit(ctx, userID, 0, "run:abc", ""), domain.ErrInvalidAmount)
	require.ErrorIs(t, svc.Debit(ctx, userID, 1, "  ", ""), domain.ErrInvalidReference)
	require.ErrorIs(t, svc.Grant(ctx, 0, 1, "x", ""), domain.ErrInvalidUser)

	_, err := svc.Balance(ctx, userID)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}
