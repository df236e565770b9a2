package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/traffictuner/traffictuner/internal/domains/domain"
	"github.com/traffictuner/traffictuner/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("domains.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Domain, error) {
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}

	normalized, host, err := NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = host
	}

	now := time.Now().UTC()
	d := &domain.Domain{
		ID:          s.genID.Generate(),
		UserID:      req.UserID,
		URL:         normalized,
		DisplayName: displayName,
		Slug:        slug.Make(host),
		Status:      domain.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, s.db, d); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDomainExists
		}
		return nil, err
	}

	s.log.Info("domain registered",
		zap.String("user_id", req.UserID.String()),
		zap.String("url", normalized),
	)
	return d, nil
}

func (s *Service) Get(ctx context.Context, userID, id snowflake.ID) (*domain.Domain, error) {
	d, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if userID != 0 && d.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, userID snowflake.ID) ([]domain.Domain, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	return s.repo.ListByUser(ctx, s.db, userID)
}

func (s *Service) SetPaused(ctx context.Context, userID, id snowflake.ID, paused bool) (*domain.Domain, error) {
	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	from, to := domain.StatusActive, domain.StatusPaused
	if !paused {
		from, to = domain.StatusPaused, domain.StatusActive
	}
	if d.Status == to {
		return d, nil
	}

	swapped, err := s.repo.TransitionStatus(ctx, s.db, id, to, from)
	if err != nil {
		return nil, err
	}
	if !swapped {
		// The row moved out of `from` since the read, likely into
		// `analyzing` or `error`.
		return nil, domain.ErrStatusConflict
	}

	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) Rename(ctx context.Context, userID, id snowflake.ID, displayName string) (*domain.Domain, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, domain.ErrInvalidName
	}

	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if d.DisplayName == displayName {
		return d, nil
	}

	fields := map[string]any{
		"display_name": displayName,
		"updated_at":   time.Now().UTC(),
	}
	if err := s.repo.UpdateFields(ctx, s.db, id, fields); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) RecordAnalysisResult(ctx context.Context, id snowflake.ID, result domain.AnalysisResult) error {
	analyzedAt := result.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now().UTC()
	}
	fields := map[string]any{
		"analysis_count":   gorm.Expr("analysis_count + 1"),
		"last_analyzed_at": analyzedAt,
		"updated_at":       time.Now().UTC(),
	}
	if result.SEOScore != nil {
		fields["seo_score"] = *result.SEOScore
	}
	if result.AEOScore != nil {
		fields["aeo_score"] = *result.AEOScore
	}
	if result.LatestReportID != nil {
		fields["latest_report_id"] = *result.LatestReportID
	}
	return s.repo.UpdateFields(ctx, s.db, id, fields)
}

// NormalizeURL reduces a raw URL to `https://host` form. A missing scheme
// defaults to https; anything other than https is rejected.
func NormalizeURL(raw string) (normalized, host string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", domain.ErrInvalidURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, parseErr := url.Parse(raw)
	if parseErr != nil {
		return "", "", domain.ErrInvalidURL
	}
	if parsed.Scheme != "https" {
		return "", "", domain.ErrInsecureURL
	}

	host = strings.ToLower(strings.TrimSpace(parsed.Hostname()))
	if host == "" || !strings.Contains(host, ".") {
		return "", "", domain.ErrInvalidURL
	}

	return "https://" + host, host, nil
}
