package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	analysisdomain "github.com/traffictuner/traffictuner/internal/analysis/domain"
	creditsdomain "github.com/traffictuner/traffictuner/internal/credits/domain"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
	trackingdomain "github.com/traffictuner/traffictuner/internal/tracking/domain"
)

func serveError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, err)
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/boom", nil))
	return resp
}

func TestErrorMiddlewareStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		errType string
	}{
		{"insufficient credits", creditsdomain.ErrInsufficientCredits, http.StatusPaymentRequired, "insufficient_credits"},
		{"conflicting run", analysisdomain.ErrConflictingRun, http.StatusConflict, "conflicting_run"},
		{"duplicate domain", domainsdomain.ErrDomainExists, http.StatusConflict, "duplicate_domain"},
		{"domain not found", domainsdomain.ErrDomainNotFound, http.StatusNotFound, "not_found"},
		{"unknown platform", trackingdomain.ErrUnknownPlatform, http.StatusBadRequest, "unknown_platform"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"rate limited", ErrTooManyRequests, http.StatusTooManyRequests, "rate_limited"},
		{"unclassified", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := serveError(t, tc.err)
			if resp.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}

			var body errorResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if body.Error.Type != tc.errType {
				t.Fatalf("expected error type %q, got %q", tc.errType, body.Error.Type)
			}
			if body.Error.Message == "" {
				t.Fatal("expected a non-empty message")
			}
		})
	}
}

func TestErrorMiddlewareValidationEnvelope(t *testing.T) {
	resp := serveError(t, newValidationError("url", "required", "url is required"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if body.Error.Type != "validation_error" {
		t.Fatalf("expected validation_error, got %q", body.Error.Type)
	}
	if len(body.Error.Errors) != 1 || body.Error.Errors[0].Field != "url" {
		t.Fatalf("unexpected field errors: %+v", body.Error.Errors)
	}
}

func TestErrorMiddlewareSkipsWrittenResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		_ = c.Error(ErrInternal)
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected the handler response to stand, got %d", resp.Code)
	}
}
