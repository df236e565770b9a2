package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	adminstatsdomain "github.com/traffictuner/traffictuner/internal/adminstats/domain"
	analysisdomain "github.com/traffictuner/traffictuner/internal/analysis/domain"
	authdomain "github.com/traffictuner/traffictuner/internal/auth/domain"
	"github.com/traffictuner/traffictuner/internal/clock"
	creditsdomain "github.com/traffictuner/traffictuner/internal/credits/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    adminstatsdomain.Repository
	Credits creditsdomain.Service
	Users   authdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    adminstatsdomain.Repository
	credits creditsdomain.Service
	users   authdomain.Service
}

func New(p Params) adminstatsdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("adminstats.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		credits: p.Credits,
		users:   p.Users,
	}
}

func (s *Service) Dashboard(ctx context.Context) (*adminstatsdomain.DashboardStats, error) {
	now := s.clock.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	totalUsers, err := s.repo.CountUsers(ctx, s.db)
	if err != nil {
		return nil, err
	}
	newToday, err := s.repo.CountUsersSince(ctx, s.db, startOfDay)
	if err != nil {
		return nil, err
	}

	domainsByStatus, err := s.repo.CountDomainsByStatus(ctx, s.db)
	if err != nil {
		return nil, err
	}
	var totalDomains int64
	for _, count := range domainsByStatus {
		totalDomains += count
	}

	runsByState, err := s.repo.CountRunsByState(ctx, s.db)
	if err != nil {
		return nil, err
	}
	var totalRuns int64
	for _, count := range runsByState {
		totalRuns += count
	}

	outstanding, err := s.repo.SumBalances(ctx, s.db)
	if err != nil {
		return nil, err
	}
	consumedToday, err := s.repo.SumDebitsSince(ctx, s.db, startOfDay)
	if err != nil {
		return nil, err
	}

	return &adminstatsdomain.DashboardStats{
		Users: adminstatsdomain.UserStats{
			Total:    totalUsers,
			NewToday: newToday,
		},
		Domains: adminstatsdomain.DomainStats{
			Total:    totalDomains,
			ByStatus: domainsByStatus,
		},
		Analyses: adminstatsdomain.AnalysisStats{
			Total:     totalRuns,
			Succeeded: runsByState[analysisdomain.RunStateSucceeded],
			Failed:    runsByState[analysisdomain.RunStateFailed],
			InFlight:  runsByState[analysisdomain.RunStateQueued] + runsByState[analysisdomain.RunStateRunning],
		},
		Credits: adminstatsdomain.CreditStats{
			OutstandingBalance: outstanding,
			ConsumedToday:      consumedToday,
		},
	}, nil
}

func (s *Service) GrantCredits(ctx context.Context, adminID snowflake.ID, req adminstatsdomain.GrantRequest) (int64, error) {
	if req.UserID == 0 {
		return 0, adminstatsdomain.ErrInvalidUser
	}
	if req.Amount <= 0 {
		return 0, adminstatsdomain.ErrInvalidAmount
	}

	if _, err := s.users.UserByID(ctx, req.UserID); err != nil {
		return 0, adminstatsdomain.ErrUserNotFound
	}

	reference := "admin_grant:" + uuid.NewString()
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("manual grant by admin %s", adminID)
	}

	if err := s.credits.Grant(ctx, req.UserID, req.Amount, reference, description); err != nil {
		return 0, err
	}

	s.log.Info("credits granted",
		zap.String("admin_id", adminID.String()),
		zap.String("user_id", req.UserID.String()),
		zap.Int64("amount", req.Amount),
		zap.String("reference", reference),
	)

	return s.credits.Balance(ctx, req.UserID)
}
