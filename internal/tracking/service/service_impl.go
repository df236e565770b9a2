package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
	obsmetrics "github.com/traffictuner/traffictuner/internal/observability/metrics"
	"github.com/traffictuner/traffictuner/internal/tracking/domain"
	"github.com/traffictuner/traffictuner/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Domains    domainsdomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	domains    domainsdomain.Service
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("tracking.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		domains:    p.Domains,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.TrackingConfiguration, error) {
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}

	descriptor, ok := domain.Descriptor(req.Platform)
	if !ok {
		return nil, domain.ErrUnknownPlatform
	}

	trackingID := strings.TrimSpace(req.TrackingID)
	if !descriptor.ValidID(trackingID) {
		return nil, domain.ErrInvalidTrackingID
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	if req.DomainID != nil {
		// Ownership check; also rejects unknown domains.
		if _, err := s.domains.Get(ctx, req.UserID, *req.DomainID); err != nil {
			return nil, err
		}
	}

	if req.IsActive {
		conflict, err := s.repo.HasActiveConflict(ctx, s.db, req.UserID, req.Platform, req.DomainID, 0)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, domain.ErrConflictingActiveConfig
		}
	}

	now := time.Now().UTC()
	c := &domain.TrackingConfiguration{
		ID:         s.genID.Generate(),
		UserID:     req.UserID,
		Platform:   req.Platform,
		TrackingID: trackingID,
		Name:       name,
		DomainID:   req.DomainID,
		IsActive:   req.IsActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, s.db, c); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// The partial unique index caught a concurrent activation.
			return nil, domain.ErrConflictingActiveConfig
		}
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordTrackingChange(ctx, c.Platform, "create")
	}
	s.log.Info("tracking configuration created",
		zap.String("user_id", req.UserID.String()),
		zap.String("platform", c.Platform),
		zap.Bool("is_active", c.IsActive),
	)
	return c, nil
}

func (s *Service) Update(ctx context.Context, userID, id snowflake.ID, req domain.UpdateRequest) (*domain.TrackingConfiguration, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	descriptor, _ := domain.Descriptor(current.Platform)

	fields := map[string]any{"updated_at": time.Now().UTC()}

	if req.TrackingID != nil {
		trackingID := strings.TrimSpace(*req.TrackingID)
		if !descriptor.ValidID(trackingID) {
			return nil, domain.ErrInvalidTrackingID
		}
		fields["tracking_id"] = trackingID
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
	}

	scope := current.DomainID
	if req.SetDomainID {
		if req.DomainID != nil {
			if _, err := s.domains.Get(ctx, userID, *req.DomainID); err != nil {
				return nil, err
			}
		}
		scope = req.DomainID
		fields["domain_id"] = req.DomainID
	}

	active := current.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
		fields["is_active"] = active
	}

	if active {
		conflict, err := s.repo.HasActiveConflict(ctx, s.db, userID, current.Platform, scope, id)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, domain.ErrConflictingActiveConfig
		}
	}

	if err := s.repo.UpdateFields(ctx, s.db, id, fields); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrConflictingActiveConfig
		}
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordTrackingChange(ctx, current.Platform, "update")
	}
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) Delete(ctx context.Context, userID, id snowflake.ID) error {
	current, err := s.repo.FindByID(ctx, s.db, id)
	if err == domain.ErrConfigNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if userID != 0 && current.UserID != userID {
		return domain.ErrNotOwner
	}

	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return err
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordTrackingChange(ctx, current.Platform, "delete")
	}
	s.log.Info("tracking configuration deleted",
		zap.String("user_id", current.UserID.String()),
		zap.String("platform", current.Platform),
	)
	return nil
}

func (s *Service) Get(ctx context.Context, userID, id snowflake.ID) (*domain.TrackingConfiguration, error) {
	c, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if userID != 0 && c.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	return c, nil
}

func (s *Service) ListForUser(ctx context.Context, userID snowflake.ID) ([]domain.TrackingConfiguration, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	return s.repo.ListByUser(ctx, s.db, userID)
}

func (s *Service) ListForDomain(ctx context.Context, userID, domainID snowflake.ID) ([]domain.TrackingConfiguration, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	if _, err := s.domains.Get(ctx, userID, domainID); err != nil {
		return nil, err
	}
	return s.repo.ListForDomain(ctx, s.db, userID, domainID, false)
}

func (s *Service) BulkToggle(ctx context.Context, userID snowflake.ID, ids []snowflake.ID, active bool) (int64, error) {
	if userID == 0 {
		return 0, domain.ErrInvalidUser
	}

	updated, err := s.repo.SetActive(ctx, s.db, userID, ids, active)
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return 0, domain.ErrConflictingActiveConfig
		}
		return 0, err
	}

	if s.obsMetrics != nil && updated > 0 {
		action := "deactivate"
		if active {
			action = "activate"
		}
		s.obsMetrics.RecordTrackingChange(ctx, "bulk", action)
	}
	return updated, nil
}

func (s *Service) CodeForConfig(ctx context.Context, userID, id snowflake.ID) (string, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	descriptor, ok := domain.Descriptor(c.Platform)
	if !ok {
		return "", domain.ErrUnknownPlatform
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordCodeRender(ctx, "config")
	}
	return descriptor.Render(c.TrackingID), nil
}

func (s *Service) CodeForDomain(ctx context.Context, userID, domainID snowflake.ID) (*domain.DomainCode, error) {
	if _, err := s.domains.Get(ctx, userID, domainID); err != nil {
		return nil, err
	}

	configs, err := s.repo.ListForDomain(ctx, s.db, userID, domainID, true)
	if err != nil {
		return nil, err
	}

	snippets := domain.GenerateSnippets(configs)
	parts := make([]string, 0, len(snippets))
	for _, snip := range snippets {
		parts = append(parts, snip.Code)
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordCodeRender(ctx, "domain")
	}
	return &domain.DomainCode{
		DomainID: domainID,
		Snippets: snippets,
		Combined: strings.Join(parts, "\n"),
	}, nil
}

func (s *Service) Platforms() []domain.PlatformDescriptor {
	return domain.Descriptors()
}
