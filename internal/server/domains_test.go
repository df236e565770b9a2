package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	analysisdomain "github.com/traffictuner/traffictuner/internal/analysis/domain"
	creditsdomain "github.com/traffictuner/traffictuner/internal/credits/domain"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
)

const testUserID = snowflake.ID(42)

type fakeDomainsService struct {
	created       []domainsdomain.CreateRequest
	createErr     error
	setPausedArgs []bool
	renameCalls   int
	domain        *domainsdomain.Domain
}

func (f *fakeDomainsService) Create(ctx context.Context, req domainsdomain.CreateRequest) (*domainsdomain.Domain, error) {
	_ = ctx
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domainsdomain.Domain{
		ID:          snowflake.ID(101),
		UserID:      req.UserID,
		URL:         req.URL,
		DisplayName: req.DisplayName,
		Status:      domainsdomain.StatusActive,
	}, nil
}

func (f *fakeDomainsService) Get(ctx context.Context, userID, id snowflake.ID) (*domainsdomain.Domain, error) {
	_ = ctx
	_ = userID
	if f.domain == nil || f.domain.ID != id {
		return nil, domainsdomain.ErrDomainNotFound
	}
	return f.domain, nil
}

func (f *fakeDomainsService) List(ctx context.Context, userID snowflake.ID) ([]domainsdomain.Domain, error) {
	_ = ctx
	_ = userID
	if f.domain == nil {
		return []domainsdomain.Domain{}, nil
	}
	return []domainsdomain.Domain{*f.domain}, nil
}

func (f *fakeDomainsService) SetPaused(ctx context.Context, userID, id snowflake.ID, paused bool) (*domainsdomain.Domain, error) {
	_ = ctx
	_ = userID
	_ = id
	f.setPausedArgs = append(f.setPausedArgs, paused)
	return f.domain, nil
}

func (f *fakeDomainsService) Rename(ctx context.Context, userID, id snowflake.ID, displayName string) (*domainsdomain.Domain, error) {
	_ = ctx
	_ = userID
	_ = id
	f.renameCalls++
	return f.domain, nil
}

func (f *fakeDomainsService) RecordAnalysisResult(ctx context.Context, id snowflake.ID, result domainsdomain.AnalysisResult) error {
	return nil
}

type fakeAnalysisService struct {
	requestCalls int
	requestErr   error
	lastType     string
}

func (f *fakeAnalysisService) RequestAnalysis(ctx context.Context, userID, domainID snowflake.ID, analysisType string) (*analysisdomain.Receipt, error) {
	_ = ctx
	_ = userID
	_ = domainID
	f.requestCalls++
	f.lastType = analysisType
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &analysisdomain.Receipt{RunID: "run_01TESTRUN", CreditsRemaining: 2}, nil
}

func (f *fakeAnalysisService) GetRun(ctx context.Context, userID snowflake.ID, runID string) (*analysisdomain.AnalysisRun, error) {
	_ = ctx
	_ = userID
	_ = runID
	return nil, analysisdomain.ErrRunNotFound
}

func (f *fakeAnalysisService) ListRuns(ctx context.Context, userID, domainID snowflake.ID) ([]analysisdomain.AnalysisRun, error) {
	_ = ctx
	_ = userID
	_ = domainID
	return []analysisdomain.AnalysisRun{}, nil
}

func newDomainsTestRouter(srv *Server) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.Use(func(c *gin.Context) {
		c.Set(contextUserIDKey, testUserID)
		c.Set(contextAuthTypeKey, authTypeSession)
	})
	return router
}

func TestCreateDomainReturns201(t *testing.T) {
	domainsSvc := &fakeDomainsService{}
	srv := &Server{domainsSvc: domainsSvc}
	router := newDomainsTestRouter(srv)
	router.POST("/domains", srv.CreateDomain)

	body := `{"url":"https://example.com","display_name":"Example"}`
	req := httptest.NewRequest(http.MethodPost, "/domains", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(domainsSvc.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(domainsSvc.created))
	}
	if domainsSvc.created[0].UserID != testUserID {
		t.Fatalf("expected create for user %d, got %d", testUserID, domainsSvc.created[0].UserID)
	}
}

func TestCreateDomainRejectsDuplicate(t *testing.T) {
	domainsSvc := &fakeDomainsService{createErr: domainsdomain.ErrDomainExists}
	srv := &Server{domainsSvc: domainsSvc}
	router := newDomainsTestRouter(srv)
	router.POST("/domains", srv.CreateDomain)

	body := `{"url":"https://example.com","display_name":"Example"}`
	req := httptest.NewRequest(http.MethodPost, "/domains", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAnalyzeDomainAccepted(t *testing.T) {
	analysisSvc := &fakeAnalysisService{}
	srv := &Server{analysisSvc: analysisSvc}
	router := newDomainsTestRouter(srv)
	router.POST("/domains/:id/analyze", srv.AnalyzeDomain)

	req := httptest.NewRequest(http.MethodPost, "/domains/101/analyze", bytes.NewBufferString(`{"analysis_type":"seo"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", resp.Code, resp.Body.String())
	}
	if analysisSvc.requestCalls != 1 {
		t.Fatalf("expected one analysis request, got %d", analysisSvc.requestCalls)
	}
	if analysisSvc.lastType != "seo" {
		t.Fatalf("expected analysis type seo, got %q", analysisSvc.lastType)
	}

	var receipt struct {
		RunID            string `json:"run_id"`
		CreditsRemaining int64  `json:"credits_remaining"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.RunID == "" || receipt.CreditsRemaining != 2 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
}

func TestAnalyzeDomainWithoutCreditsReturns402(t *testing.T) {
	analysisSvc := &fakeAnalysisService{requestErr: creditsdomain.ErrInsufficientCredits}
	srv := &Server{analysisSvc: analysisSvc}
	router := newDomainsTestRouter(srv)
	router.POST("/domains/:id/analyze", srv.AnalyzeDomain)

	req := httptest.NewRequest(http.MethodPost, "/domains/101/analyze", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("expected status 402, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAnalyzeDomainWithRunInFlightReturns409(t *testing.T) {
	analysisSvc := &fakeAnalysisService{requestErr: analysisdomain.ErrConflictingRun}
	srv := &Server{analysisSvc: analysisSvc}
	router := newDomainsTestRouter(srv)
	router.POST("/domains/:id/analyze", srv.AnalyzeDomain)

	req := httptest.NewRequest(http.MethodPost, "/domains/101/analyze", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpdateDomainRejectsUnknownStatus(t *testing.T) {
	domainsSvc := &fakeDomainsService{domain: &domainsdomain.Domain{ID: snowflake.ID(101), UserID: testUserID}}
	srv := &Server{domainsSvc: domainsSvc}
	router := newDomainsTestRouter(srv)
	router.PATCH("/domains/:id", srv.UpdateDomain)

	req := httptest.NewRequest(http.MethodPatch, "/domains/101", bytes.NewBufferString(`{"status":"archived"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(domainsSvc.setPausedArgs) != 0 {
		t.Fatal("expected no status change")
	}
}

func TestUpdateDomainPausesViaStatus(t *testing.T) {
	target := &domainsdomain.Domain{ID: snowflake.ID(101), UserID: testUserID, Status: domainsdomain.StatusPaused}
	domainsSvc := &fakeDomainsService{domain: target}
	srv := &Server{domainsSvc: domainsSvc}
	router := newDomainsTestRouter(srv)
	router.PATCH("/domains/:id", srv.UpdateDomain)

	req := httptest.NewRequest(http.MethodPatch, "/domains/101", bytes.NewBufferString(`{"status":"paused"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(domainsSvc.setPausedArgs) != 1 || !domainsSvc.setPausedArgs[0] {
		t.Fatalf("expected SetPaused(true), got %v", domainsSvc.setPausedArgs)
	}
}
