package authorization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	enforcer, err := NewEnforcer()
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAdminRolesCanAdministrate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.CanAdministrate(ctx, "ADMIN"))
	require.NoError(t, svc.CanAdministrate(ctx, "SUPER_ADMIN"))
}

func TestUserRoleIsForbidden(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.CanAdministrate(ctx, "USER"), ErrForbidden)
	require.ErrorIs(t, svc.Authorize(ctx, "USER", ObjectCredits, ActionCreditsGrant), ErrForbidden)
}

func TestSuperAdminInheritsAdminCapabilities(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, "SUPER_ADMIN", ObjectCredits, ActionCreditsGrant))
	require.NoError(t, svc.Authorize(ctx, "super_admin", ObjectUsers, ActionUsersView))
}

func TestAuthorizeValidatesInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.Authorize(ctx, "", ObjectCredits, ActionCreditsGrant), ErrInvalidRole)
	require.ErrorIs(t, svc.Authorize(ctx, "ADMIN", "", ActionCreditsGrant), ErrInvalidObject)
	require.ErrorIs(t, svc.Authorize(ctx, "ADMIN", ObjectCredits, ""), ErrInvalidAction)
}
