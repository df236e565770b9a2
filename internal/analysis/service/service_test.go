package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	analysisdomain "github.com/traffictuner/traffictuner/internal/analysis/domain"
	analysisrepository "github.com/traffictuner/traffictuner/internal/analysis/repository"
	"github.com/traffictuner/traffictuner/internal/analysis/engine"
	authdomain "github.com/traffictuner/traffictuner/internal/auth/domain"
	"github.com/traffictuner/traffictuner/internal/clock"
	"github.com/traffictuner/traffictuner/internal/config"
	creditsdomain "github.com/traffictuner/traffictuner/internal/credits/domain"
	creditsrepository "github.com/traffictuner/traffictuner/internal/credits/repository"
	creditsservice "github.com/traffictuner/traffictuner/internal/credits/service"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
	domainsrepository "github.com/traffictuner/traffictuner/internal/domains/repository"
	domainsservice "github.com/traffictuner/traffictuner/internal/domains/service"
	reportdomain "github.com/traffictuner/traffictuner/internal/report/domain"
	reportrepository "github.com/traffictuner/traffictuner/internal/report/repository"
	"github.com/traffictuner/traffictuner/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubEngine struct {
	mu      sync.Mutex
	result  *engine.Result
	err     error
	release chan struct{}
}

func (e *stubEngine) set(result *engine.Result, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.result, e.err = result, err
}

func (e *stubEngine) Analyze(ctx context.Context, url, analysisType string) (*engine.Result, error) {
	e.mu.Lock()
	release := e.release
	result, err := e.result, e.err
	e.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := *result
	return &out, nil
}

func goodResult() *engine.Result {
	return &engine.Result{
		SEOScore:        72.5,
		AEOScore:        61.0,
		OverallScore:    66.8,
		SEO:             engine.Section{Score: 72.5, Factors: map[string]engine.FactorScore{}},
		AEO:             engine.Section{Score: 61.0, Factors: map[string]engine.FactorScore{}},
		LLMSFileContent: "# LLMs.txt",
		Summary:         "ok",
	}
}

type harness struct {
	svc     *Service
	credits creditsdomain.Service
	domains domainsdomain.Service
	eng     *stubEngine
	db      *gorm.DB
	node    *snowflake.Node
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&authdomain.User{},
		&creditsdomain.CreditAccount{},
		&creditsdomain.CreditEntry{},
		&domainsdomain.Domain{},
		&analysisdomain.AnalysisRun{},
		&reportdomain.Report{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	creditsSvc := creditsservice.New(creditsservice.Params{
		DB: dbConn, Log: zap.NewNop(), GenID: node, Repo: creditsrepository.Provide(),
	})
	domainsSvc := domainsservice.New(domainsservice.Params{
		DB: dbConn, Log: zap.NewNop(), GenID: node, Repo: domainsrepository.Provide(),
	})

	eng := &stubEngine{result: goodResult()}
	holder := config.NewStaticEngineConfigHolder(config.EngineConfig{
		AnalyzeTimeout:     100 * time.Millisecond,
		DeepAnalyzeTimeout: 250 * time.Millisecond,
		WorkerCount:        1,
		QueueSize:          8,
		DefaultSEOScore:    60,
		DefaultAEOScore:    70,
	})

	svc := New(Params{
		DB:          dbConn,
		Log:         zap.NewNop(),
		GenID:       node,
		Holder:      holder,
		Clock:       clock.NewSystemClock(),
		Repo:        analysisrepository.Provide(),
		DomainsRepo: domainsrepository.Provide(),
		Domains:     domainsSvc,
		Credits:     creditsSvc,
		Reports:     reportrepository.Provide(),
		Engine:      eng,
	})
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = svc.Stop(ctx)
	})

	return &harness{svc: svc, credits: creditsSvc, domains: domainsSvc, eng: eng, db: dbConn, node: node}
}

func (h *harness) newDomain(t *testing.T, userID snowflake.ID) *domainsdomain.Domain {
	t.Helper()
	d, err := h.domains.Create(context.Background(), domainsdomain.CreateRequest{UserID: userID, URL: "example.com"})
	require.NoError(t, err)
	return d
}

func (h *harness) domainStatus(t *testing.T, id snowflake.ID) string {
	t.Helper()
	d, err := h.domains.Get(context.Background(), 0, id)
	require.NoError(t, err)
	return d.Status
}

func (h *harness) balance(t *testing.T, userID snowflake.ID) int64 {
	t.Helper()
	balance, err := h.credits.Balance(context.Background(), userID)
	require.NoError(t, err)
	return balance
}

func TestRequestAnalysisSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()
	require.NoError(t, h.credits.Grant(ctx, userID, 1, "trial", ""))
	site := h.newDomain(t, userID)

	receipt, err := h.svc.RequestAnalysis(ctx, userID, site.ID, "")
	require.NoError(t, err)
	require.NotEmpty(t, receipt.RunID)
	require.EqualValues(t, 0, receipt.CreditsRemaining)

	require.Eventually(t, func() bool {
		return h.domainStatus(t, site.ID) == domainsdomain.StatusActive
	}, 3*time.Second, 10*time.Millisecond)

	got, err := h.domains.Get(ctx, userID, site.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SEOScore)
	require.Equal(t, 72.5, *got.SEOScore)
	require.Equal(t, 61.0, *got.AEOScore)
	require.NotNil(t, got.LatestReportID)
	require.EqualValues(t, 1, got.AnalysisCount)

	run, err := h.svc.GetRun(ctx, userID, receipt.RunID)
	require.NoError(t, err)
	require.Equal(t, analysisdomain.RunStateSucceeded, run.State)
	require.NotNil(t, run.FinishedAt)

	report, err := reportrepository.Provide().FindByID(ctx, h.db, *got.LatestReportID)
	require.NoError(t, err)
	require.Equal(t, receipt.RunID, report.RunID)
	require.Equal(t, 72.5, report.SEOScore)

	require.EqualValues(t, 0, h.balance(t, userID))
}

func TestRequestAnalysisInsufficientCredits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()
	site := h.newDomain(t, userID)

	_, err := h.svc.RequestAnalysis(ctx, userID, site.ID, engine.TypeFull)
	require.ErrorIs(t, err, creditsdomain.ErrInsufficientCredits)

	require.Equal(t, domainsdomain.StatusActive, h.domainStatus(t, site.ID))
	runs, err := h.svc.ListRuns(ctx, userID, site.ID)
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestRequestAnalysisConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()
	require.NoError(t, h.credits.Grant(ctx, userID, 2, "trial", ""))
	site := h.newDomain(t, userID)

	h.eng.release = make(chan struct{})
	_, err := h.svc.RequestAnalysis(ctx, userID, site.ID, engine.TypeFull)
	require.NoError(t, err)

	_, err = h.svc.RequestAnalysis(ctx, userID, site.ID, engine.TypeFull)
	require.ErrorIs(t, err, analysisdomain.ErrConflictingRun)
	require.EqualValues(t, 1, h.balance(t, userID))

	close(h.eng.release)
	require.Eventually(t, func() bool {
		return h.domainStatus(t, site.ID) == domainsdomain.StatusActive
	}, 3*time.Second, 10*time.Millisecond)
}

func TestFailedAnalysisRefundsAndAllowsRetry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()
	require.NoError(t, h.credits.Grant(ctx, userID, 3, "trial", ""))
	site := h.newDomain(t, userID)

	h.eng.set(nil, errors.New("scorer unreachable"))
	receipt, err := h.svc.RequestAnalysis(ctx, userID, site.ID, engine.TypeFull)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return h.domainStatus(t, site.ID) == domainsdomain.StatusError
	}, 3*time.Second, 10*time.Millisecond)

	// Net zero: the debit was refunded.
	require.EqualValues(t, 3, h.balance(t, userID))

	run, err := h.svc.GetRun(ctx, userID, receipt.RunID)
	require.NoError(t, err)
	require.Equal(t, analysisdomain.RunStateFailed, run.State)
	require.Contains(t, run.ErrorDetail, "scorer unreachable")

	// An errored domain stays submittable.
	h.eng.set(goodResult(), nil)
	_, err = h.svc.RequestAnalysis(ctx, userID, site.ID, engine.TypeFull)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return h.domainStatus(t, site.ID) == domainsdomain.StatusActive
	}, 3*time.Second, 10*time.Millisecond)
	require.EqualValues(t, 2, h.balance(t, userID))
}

func TestTimeoutIsFailurePath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()
	require.NoError(t, h.credits.Grant(ctx, userID, 3, "trial", ""))
	site := h.newDomain(t, userID)

	h.eng.release = make(chan struct{}) // never released; the run deadline fires
	receipt, err := h.svc.RequestAnalysis(ctx, userID, site.ID, engine.TypeFull)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return h.domainStatus(t, site.ID) == domainsdomain.StatusError
	}, 3*time.Second, 10*time.Millisecond)

	run, err := h.svc.GetRun(ctx, userID, receipt.RunID)
	require.NoError(t, err)
	require.Equal(t, analysisdomain.RunStateFailed, run.State)
	require.Contains(t, run.ErrorDetail, "deadline exceeded")
	require.EqualValues(t, 3, h.balance(t, userID))
}

func TestRequestAnalysisValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()
	site := h.newDomain(t, userID)

	_, err := h.svc.RequestAnalysis(ctx, userID, site.ID, "deep")
	require.ErrorIs(t, err, analysisdomain.ErrInvalidType)

	_, err = h.svc.RequestAnalysis(ctx, h.node.Generate(), site.ID, engine.TypeFull)
	require.ErrorIs(t, err, domainsdomain.ErrNotOwner)
}

func TestGetRunEnforcesOwnership(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()
	require.NoError(t, h.credits.Grant(ctx, userID, 1, "trial", ""))
	site := h.newDomain(t, userID)

	receipt, err := h.svc.RequestAnalysis(ctx, userID, site.ID, engine.TypeQuick)
	require.NoError(t, err)

	_, err = h.svc.GetRun(ctx, h.node.Generate(), receipt.RunID)
	require.ErrorIs(t, err, analysisdomain.ErrNotOwner)
}
