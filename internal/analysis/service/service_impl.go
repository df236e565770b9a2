package service

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/traffictuner/traffictuner/internal/analysis/domain"
	"github.com/traffictuner/traffictuner/internal/analysis/engine"
	authdomain "github.com/traffictuner/traffictuner/internal/auth/domain"
	"github.com/traffictuner/traffictuner/internal/clock"
	"github.com/traffictuner/traffictuner/internal/config"
	creditsdomain "github.com/traffictuner/traffictuner/internal/credits/domain"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
	obsmetrics "github.com/traffictuner/traffictuner/internal/observability/metrics"
	"github.com/traffictuner/traffictuner/internal/providers/email"
	"github.com/traffictuner/traffictuner/internal/providers/slack"
	reportdomain "github.com/traffictuner/traffictuner/internal/report/domain"
	"github.com/traffictuner/traffictuner/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Cfg         config.Config
	Holder      *config.EngineConfigHolder
	Clock       clock.Clock
	Repo        domain.Repository
	DomainsRepo domainsdomain.Repository
	Domains     domainsdomain.Service
	Credits     creditsdomain.Service
	Reports     reportdomain.Repository
	Engine      engine.Engine
	Users       authdomain.Service  `optional:"true"`
	Email       email.Provider      `optional:"true"`
	Slack       slack.Provider      `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type job struct {
	runID        string
	domainID     snowflake.ID
	userID       snowflake.ID
	url          string
	analysisType string
	creditCost   int64
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	cfg         config.Config
	holder      *config.EngineConfigHolder
	clock       clock.Clock
	repo        domain.Repository
	domainsRepo domainsdomain.Repository
	domains     domainsdomain.Service
	credits     creditsdomain.Service
	reports     reportdomain.Repository
	engine      engine.Engine
	users       authdomain.Service
	email       email.Provider
	slack       slack.Provider
	obsMetrics  *obsmetrics.Metrics
	worker      *obsmetrics.WorkerMetrics

	jobs chan job
	wg   sync.WaitGroup
}

func New(p Params) *Service {
	engineCfg := p.Holder.Get()
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("analysis.service"),
		genID:       p.GenID,
		cfg:         p.Cfg,
		holder:      p.Holder,
		clock:       p.Clock,
		repo:        p.Repo,
		domainsRepo: p.DomainsRepo,
		domains:     p.Domains,
		credits:     p.Credits,
		reports:     p.Reports,
		engine:      p.Engine,
		users:       p.Users,
		email:       p.Email,
		slack:       p.Slack,
		obsMetrics:  p.ObsMetrics,
		worker:      obsmetrics.Worker(),
		jobs:        make(chan job, engineCfg.QueueSize),
	}
}

// RegisterLifecycle ties the worker pool to the fx application lifecycle.
func RegisterLifecycle(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.Stop,
	})
}

// Start spawns the worker pool and re-enqueues runs left queued by a
// previous process.
func (s *Service) Start(ctx context.Context) error {
	count := s.holder.Get().WorkerCount
	for i := 0; i < count; i++ {
		s.wg.Add(1)
		go s.runWorker()
	}
	s.log.Info("analysis workers started", zap.Int("count", count))
	return s.recoverQueued(ctx)
}

// Stop closes the queue and waits for in-flight runs to finish.
func (s *Service) Stop(ctx context.Context) error {
	close(s.jobs)
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) RequestAnalysis(ctx context.Context, userID, domainID snowflake.ID, analysisType string) (*domain.Receipt, error) {
	if analysisType == "" {
		analysisType = engine.TypeFull
	}
	if !engine.ValidType(analysisType) {
		s.recordRequest(ctx, analysisType, "invalid")
		return nil, domain.ErrInvalidType
	}

	site, err := s.domains.Get(ctx, userID, domainID)
	if err != nil {
		return nil, err
	}
	if site.IsAnalyzing() {
		s.recordRequest(ctx, analysisType, "conflict")
		return nil, domain.ErrConflictingRun
	}

	run := &domain.AnalysisRun{
		ID:           s.genID.Generate(),
		RunID:        "run_" + ulid.Make().String(),
		DomainID:     domainID,
		UserID:       site.UserID,
		AnalysisType: analysisType,
		State:        domain.RunStateQueued,
		CreditCost:   domain.CreditCost,
		CreatedAt:    s.clock.Now(),
		UpdatedAt:    s.clock.Now(),
	}

	// Debit, status transition and run row commit or roll back together.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err := s.domainsRepo.TransitionStatus(ctx, tx, domainID, domainsdomain.StatusAnalyzing,
			domainsdomain.StatusActive, domainsdomain.StatusError, domainsdomain.StatusPaused)
		if err != nil {
			return err
		}
		if !moved {
			return domain.ErrConflictingRun
		}
		if err := s.credits.DebitTx(ctx, tx, site.UserID, run.CreditCost, run.RunID, "analysis of "+site.URL); err != nil {
			return err
		}
		if err := s.repo.CreateRun(ctx, tx, run); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrConflictingRun
			}
			return err
		}
		return nil
	})
	if err != nil {
		switch err {
		case domain.ErrConflictingRun:
			s.recordRequest(ctx, analysisType, "conflict")
		case creditsdomain.ErrInsufficientCredits:
			s.recordRequest(ctx, analysisType, "insufficient_credits")
		}
		return nil, err
	}

	j := job{
		runID:        run.RunID,
		domainID:     domainID,
		userID:       site.UserID,
		url:          site.URL,
		analysisType: analysisType,
		creditCost:   run.CreditCost,
	}
	select {
	case s.jobs <- j:
	case <-ctx.Done():
		// The debit is committed; compensate before reporting failure.
		s.failRun(context.WithoutCancel(ctx), j, "request cancelled before dispatch")
		return nil, ctx.Err()
	}
	s.worker.SetQueueDepth(len(s.jobs))
	s.recordRequest(ctx, analysisType, "accepted")

	balance, err := s.credits.Balance(ctx, site.UserID)
	if err != nil {
		s.log.Warn("balance read after debit failed", zap.Error(err))
	}
	s.log.Info("analysis queued",
		zap.String("run_id", run.RunID),
		zap.String("url", site.URL),
		zap.String("analysis_type", analysisType),
	)
	return &domain.Receipt{RunID: run.RunID, CreditsRemaining: balance}, nil
}

func (s *Service) GetRun(ctx context.Context, userID snowflake.ID, runID string) (*domain.AnalysisRun, error) {
	run, err := s.repo.FindRunByRunID(ctx, s.db, runID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && run.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	return run, nil
}

func (s *Service) ListRuns(ctx context.Context, userID, domainID snowflake.ID) ([]domain.AnalysisRun, error) {
	if _, err := s.domains.Get(ctx, userID, domainID); err != nil {
		return nil, err
	}
	return s.repo.ListRunsByDomain(ctx, s.db, domainID, 50)
}

// recoverQueued re-enqueues runs a previous process accepted but never
// dispatched.
func (s *Service) recoverQueued(ctx context.Context) error {
	runs, err := s.repo.ListRunsByState(ctx, s.db, domain.RunStateQueued, cap(s.jobs))
	if err != nil {
		return err
	}
	for _, run := range runs {
		site, err := s.domainsRepo.FindByID(ctx, s.db, run.DomainID)
		if err != nil {
			s.log.Warn("queued run without domain", zap.String("run_id", run.RunID), zap.Error(err))
			continue
		}
		select {
		case s.jobs <- job{
			runID:        run.RunID,
			domainID:     run.DomainID,
			userID:       run.UserID,
			url:          site.URL,
			analysisType: run.AnalysisType,
			creditCost:   run.CreditCost,
		}:
		default:
			s.log.Warn("queue full during recovery", zap.String("run_id", run.RunID))
		}
	}
	if len(runs) > 0 {
		s.log.Info("requeued pending analysis runs", zap.Int("count", len(runs)))
	}
	return nil
}

func (s *Service) recordRequest(ctx context.Context, analysisType, outcome string) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordAnalysisRequest(ctx, analysisType, outcome)
	}
}
