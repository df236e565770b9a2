package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
	"github.com/traffictuner/traffictuner/internal/providers/pdf"
	"github.com/traffictuner/traffictuner/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100

	defaultTrendLimit = 10
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Domains domainsdomain.Service
	PDF     pdf.Provider
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	domains domainsdomain.Service
	pdf     pdf.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("report.service"),
		repo:    p.Repo,
		domains: p.Domains,
		pdf:     p.PDF,
	}
}

func (s *Service) Get(ctx context.Context, userID, id snowflake.ID) (*domain.Report, error) {
	r, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if userID != 0 && r.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	return r, nil
}

func (s *Service) ListForDomain(ctx context.Context, userID, domainID snowflake.ID, page, perPage int) (*domain.Page, error) {
	if _, err := s.domains.Get(ctx, userID, domainID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	total, err := s.repo.CountByDomain(ctx, s.db, domainID)
	if err != nil {
		return nil, err
	}
	reports, err := s.repo.ListByDomain(ctx, s.db, domainID, (page-1)*perPage, perPage)
	if err != nil {
		return nil, err
	}

	return &domain.Page{
		Reports: reports,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

func (s *Service) ScoreTrend(ctx context.Context, userID, domainID snowflake.ID, limit int) ([]domain.ScorePoint, error) {
	if _, err := s.domains.Get(ctx, userID, domainID); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = defaultTrendLimit
	}

	points, err := s.repo.RecentScores(ctx, s.db, domainID, limit)
	if err != nil {
		return nil, err
	}

	// Newest-first from the store, oldest-first for charting.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

func (s *Service) ExportPDF(ctx context.Context, userID, id snowflake.ID) ([]byte, error) {
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	site, err := s.domains.Get(ctx, 0, r.DomainID)
	if err != nil {
		return nil, err
	}

	var recommendations []pdf.Recommendation
	if len(r.Recommendations) > 0 {
		if err := json.Unmarshal(r.Recommendations, &recommendations); err != nil {
			s.log.Warn("report has malformed recommendations",
				zap.String("report_id", r.ReportID),
				zap.Error(err),
			)
		}
	}

	reader, err := s.pdf.GenerateReport(ctx, pdf.ReportData{
		DomainURL:       site.URL,
		ReportID:        r.ReportID,
		GeneratedAt:     r.CreatedAt.UTC().Format(time.RFC1123),
		SEOScore:        r.SEOScore,
		AEOScore:        r.AEOScore,
		OverallScore:    r.OverallScore,
		Summary:         r.Summary,
		Recommendations: recommendations,
	})
	if err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, errors.New("pdf provider is not configured")
	}
	return io.ReadAll(reader)
}
