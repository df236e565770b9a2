package authorization

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// The policy set is static and role-keyed, so the enforcer runs on a
// model alone with no storage adapter.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

const (
	ObjectDashboard = "dashboard"
	ObjectCredits   = "credits"
	ObjectUsers     = "users"
)

const (
	ActionDashboardView = "dashboard.view"
	ActionCreditsGrant  = "credits.grant"
	ActionUsersView     = "users.view"
)

var (
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

type Service interface {
	// Authorize checks one capability for a role.
	Authorize(ctx context.Context, role string, object string, action string) error
	// CanAdministrate reports whether the role may enter the admin
	// surface at all.
	CanAdministrate(ctx context.Context, role string) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:admin", ObjectDashboard, ActionDashboardView},
		{"role:admin", ObjectCredits, ActionCreditsGrant},
		{"role:admin", ObjectUsers, ActionUsersView},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			return err
		}
	}
	// SUPER_ADMIN inherits every ADMIN capability.
	if _, err := enforcer.AddGroupingPolicy("role:super_admin", "role:admin"); err != nil {
		return err
	}
	return nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, object string, action string) error {
	subject, err := subjectForRole(role)
	if err != nil {
		return err
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) CanAdministrate(ctx context.Context, role string) error {
	return s.Authorize(ctx, role, ObjectDashboard, ActionDashboardView)
}

func subjectForRole(role string) (string, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return "", ErrInvalidRole
	}
	return fmt.Sprintf("role:%s", strings.ToLower(role)), nil
}
