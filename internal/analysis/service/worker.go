package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/traffictuner/traffictuner/internal/analysis/domain"
	"github.com/traffictuner/traffictuner/internal/analysis/engine"
	"github.com/traffictuner/traffictuner/internal/cloudmetrics"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
	obsmetrics "github.com/traffictuner/traffictuner/internal/observability/metrics"
	reportdomain "github.com/traffictuner/traffictuner/internal/report/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errorDetailLimit bounds what we persist from engine failures.
const errorDetailLimit = 512

func (s *Service) runWorker() {
	defer s.wg.Done()
	for j := range s.jobs {
		s.worker.SetQueueDepth(len(s.jobs))
		s.process(j)
	}
}

func (s *Service) process(j job) {
	ctx := context.Background()
	log := s.log.With(
		zap.String("run_id", j.runID),
		zap.String("url", j.url),
		zap.String("analysis_type", j.analysisType),
	)

	started, err := s.repo.MarkRunning(ctx, s.db, j.runID, s.clock.Now())
	if err != nil {
		log.Error("mark running failed", zap.Error(err))
		return
	}
	if !started {
		// Already picked up or finished elsewhere.
		return
	}
	s.worker.IncRunStarted(j.analysisType)

	cfg := s.holder.Get()
	timeout := cfg.DeepAnalyzeTimeout
	if j.analysisType == engine.TypeQuick {
		timeout = cfg.AnalyzeTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	begin := time.Now()
	result, err := s.analyzeSafely(runCtx, j.url, j.analysisType)
	elapsed := time.Since(begin)
	cancel()

	s.worker.ObserveRunDuration(j.analysisType, elapsed)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.worker.IncRunTimeout(j.analysisType)
		} else if !errors.Is(err, context.Canceled) {
			err = &obsmetrics.EngineFailure{Err: err}
		}
		s.worker.IncRunError(j.analysisType, err)
		s.worker.IncRunFinished(j.analysisType, domain.RunStateFailed)
		cloudmetrics.RecordAnalysisRun(domain.RunStateFailed)
		log.Warn("analysis failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		s.failRun(ctx, j, truncate(err.Error(), errorDetailLimit))
		s.alertFailure(ctx, j, err)
		return
	}

	if err := s.completeRun(ctx, j, result, elapsed); err != nil {
		s.worker.IncRunError(j.analysisType, err)
		s.worker.IncRunFinished(j.analysisType, domain.RunStateFailed)
		cloudmetrics.RecordAnalysisRun(domain.RunStateFailed)
		log.Error("persisting analysis result failed", zap.Error(err))
		s.failRun(ctx, j, truncate(err.Error(), errorDetailLimit))
		return
	}

	s.worker.IncRunFinished(j.analysisType, domain.RunStateSucceeded)
	cloudmetrics.RecordAnalysisRun(domain.RunStateSucceeded)
	cloudmetrics.RecordReportStored()
	cloudmetrics.RecordCreditsConsumed(j.creditCost)
	log.Info("analysis succeeded",
		zap.Duration("elapsed", elapsed),
		zap.Float64("seo_score", result.SEOScore),
		zap.Float64("aeo_score", result.AEOScore),
	)
	s.notifySuccess(ctx, j, result)
}

func (s *Service) analyzeSafely(ctx context.Context, url, analysisType string) (result *engine.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return s.engine.Analyze(ctx, url, analysisType)
}

// completeRun persists a successful outcome: report row, domain scores
// and status, run state. One transaction.
func (s *Service) completeRun(ctx context.Context, j job, result *engine.Result, elapsed time.Duration) error {
	now := s.clock.Now()

	seoJSON, err := json.Marshal(result.SEO)
	if err != nil {
		return err
	}
	aeoJSON, err := json.Marshal(result.AEO)
	if err != nil {
		return err
	}
	recsJSON, err := json.Marshal(result.Recommendations)
	if err != nil {
		return err
	}

	report := &reportdomain.Report{
		ID:               s.genID.Generate(),
		ReportID:         j.runID,
		RunID:            j.runID,
		DomainID:         j.domainID,
		UserID:           j.userID,
		SEOScore:         result.SEOScore,
		AEOScore:         result.AEOScore,
		OverallScore:     result.OverallScore,
		SEOAnalysis:      seoJSON,
		AEOAnalysis:      aeoJSON,
		Recommendations:  recsJSON,
		LLMSFileContent:  result.LLMSFileContent,
		Summary:          result.Summary,
		ProcessingTimeMS: elapsed.Milliseconds(),
		CreatedAt:        now,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reports.Create(ctx, tx, report); err != nil {
			return err
		}
		if err := s.repo.MarkFinished(ctx, tx, j.runID, domain.RunStateSucceeded, "", now); err != nil {
			return err
		}
		moved, err := s.domainsRepo.TransitionStatus(ctx, tx, j.domainID,
			domainsdomain.StatusActive, domainsdomain.StatusAnalyzing)
		if err != nil {
			return err
		}
		if !moved {
			return domainsdomain.ErrStatusConflict
		}
		return s.domainsRepo.UpdateFields(ctx, tx, j.domainID, map[string]any{
			"seo_score":        result.SEOScore,
			"aeo_score":        result.AEOScore,
			"latest_report_id": report.ID,
			"analysis_count":   gorm.Expr("analysis_count + 1"),
			"last_analyzed_at": now,
			"updated_at":       now,
		})
	})
}

// failRun persists a failed outcome: run state, domain status, refund.
// One transaction; the refund reuses the run's reference so replays are
// no-ops.
func (s *Service) failRun(ctx context.Context, j job, detail string) {
	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.MarkFinished(ctx, tx, j.runID, domain.RunStateFailed, detail, now); err != nil {
			return err
		}
		if _, err := s.domainsRepo.TransitionStatus(ctx, tx, j.domainID,
			domainsdomain.StatusError, domainsdomain.StatusAnalyzing); err != nil {
			return err
		}
		return s.credits.RefundTx(ctx, tx, j.userID, j.creditCost, j.runID, "refund: analysis failed")
	})
	if err != nil {
		s.log.Error("failure compensation did not apply",
			zap.String("run_id", j.runID),
			zap.Error(err),
		)
		return
	}
	s.worker.IncCreditRefund()
}

func (s *Service) notifySuccess(ctx context.Context, j job, result *engine.Result) {
	if s.email == nil || s.users == nil {
		return
	}
	user, err := s.users.UserByID(ctx, j.userID)
	if err != nil {
		s.log.Warn("completion email skipped", zap.String("run_id", j.runID), zap.Error(err))
		return
	}
	subject := "Your analysis of " + j.url + " is ready"
	body := fmt.Sprintf(
		"<p>Analysis of <b>%s</b> finished.</p><p>SEO score: %.1f<br>AEO score: %.1f</p>",
		j.url, result.SEOScore, result.AEOScore,
	)
	if err := s.email.Send(ctx, []string{user.Email}, subject, body); err != nil {
		s.log.Warn("completion email failed", zap.String("run_id", j.runID), zap.Error(err))
	}
}

func (s *Service) alertFailure(ctx context.Context, j job, cause error) {
	if s.slack == nil {
		return
	}
	msg := fmt.Sprintf("analysis run %s for %s failed: %s",
		j.runID, j.url, truncate(cause.Error(), errorDetailLimit))
	if err := s.slack.PostMessage(ctx, s.cfg.Slack.Channel, msg); err != nil {
		s.log.Warn("failure alert not delivered", zap.String("run_id", j.runID), zap.Error(err))
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
