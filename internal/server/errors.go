package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	adminstatsdomain "github.com/traffictuner/traffictuner/internal/adminstats/domain"
	analysisdomain "github.com/traffictuner/traffictuner/internal/analysis/domain"
	apikeydomain "github.com/traffictuner/traffictuner/internal/apikey/domain"
	authdomain "github.com/traffictuner/traffictuner/internal/auth/domain"
	"github.com/traffictuner/traffictuner/internal/authorization"
	creditsdomain "github.com/traffictuner/traffictuner/internal/credits/domain"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
	reportdomain "github.com/traffictuner/traffictuner/internal/report/domain"
	trackingdomain "github.com/traffictuner/traffictuner/internal/tracking/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrTooManyRequests    = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrInternal           = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if errType, ok := errorType(err); ok {
		status := statusForType(errType)
		return status, errorPayload{
			Type:    errType,
			Message: messageForType(errType),
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// errorType flattens the domain sentinels to a wire-level error code.
func errorType(err error) (string, bool) {
	switch {
	case errors.Is(err, creditsdomain.ErrInsufficientCredits):
		return "insufficient_credits", true
	case errors.Is(err, analysisdomain.ErrConflictingRun),
		errors.Is(err, domainsdomain.ErrDomainAnalyzing),
		errors.Is(err, domainsdomain.ErrStatusConflict):
		return "conflicting_run", true
	case errors.Is(err, domainsdomain.ErrDomainExists):
		return "duplicate_domain", true
	case errors.Is(err, trackingdomain.ErrConflictingActiveConfig):
		return "conflicting_active_config", true
	case errors.Is(err, authdomain.ErrUserExists):
		return "conflict", true
	case errors.Is(err, trackingdomain.ErrInvalidTrackingID):
		return "invalid_tracking_id", true
	case errors.Is(err, trackingdomain.ErrUnknownPlatform):
		return "unknown_platform", true
	case errors.Is(err, analysisdomain.ErrInvalidType):
		return "invalid_analysis_type", true
	case errors.Is(err, domainsdomain.ErrInvalidURL),
		errors.Is(err, domainsdomain.ErrInsecureURL),
		errors.Is(err, domainsdomain.ErrInvalidStatus),
		errors.Is(err, domainsdomain.ErrInvalidName),
		errors.Is(err, domainsdomain.ErrInvalidUser),
		errors.Is(err, trackingdomain.ErrInvalidName),
		errors.Is(err, trackingdomain.ErrInvalidUser),
		errors.Is(err, creditsdomain.ErrInvalidAmount),
		errors.Is(err, apikeydomain.ErrInvalidName),
		errors.Is(err, apikeydomain.ErrInvalidScope),
		errors.Is(err, apikeydomain.ErrInvalidKeyID),
		errors.Is(err, adminstatsdomain.ErrInvalidAmount),
		errors.Is(err, adminstatsdomain.ErrInvalidUser),
		errors.Is(err, authdomain.ErrWeakPassword),
		errors.Is(err, ErrInvalidRequest):
		return "validation_error", true
	case isNotFoundError(err):
		return "not_found", true
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return "unauthorized", true
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return "forbidden", true
	case errors.Is(err, ErrTooManyRequests):
		return "rate_limited", true
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable", true
	case errors.Is(err, ErrInternal):
		return "internal_error", true
	default:
		return "", false
	}
}

func statusForType(errType string) int {
	switch errType {
	case "insufficient_credits":
		return http.StatusPaymentRequired
	case "conflicting_run", "duplicate_domain", "conflicting_active_config", "conflict":
		return http.StatusConflict
	case "invalid_tracking_id", "unknown_platform", "invalid_analysis_type", "validation_error":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "unauthorized":
		return http.StatusUnauthorized
	case "forbidden":
		return http.StatusForbidden
	case "rate_limited":
		return http.StatusTooManyRequests
	case "service_unavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageForType(errType string) string {
	switch errType {
	case "insufficient_credits":
		return "not enough credits"
	case "conflicting_run":
		return "an analysis is already in progress"
	case "duplicate_domain":
		return "domain already registered"
	case "conflicting_active_config":
		return "an active configuration already covers this platform and scope"
	case "conflict":
		return "conflict"
	case "invalid_tracking_id":
		return "tracking id does not match the platform format"
	case "unknown_platform":
		return "unknown tracking platform"
	case "invalid_analysis_type":
		return "unknown analysis type"
	case "validation_error":
		return "validation error"
	case "not_found":
		return "not found"
	case "unauthorized":
		return "unauthorized"
	case "forbidden":
		return "forbidden"
	case "rate_limited":
		return "too many requests"
	case "service_unavailable":
		return "service unavailable"
	default:
		return "internal server error"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, domainsdomain.ErrDomainNotFound),
		errors.Is(err, domainsdomain.ErrNotOwner),
		errors.Is(err, analysisdomain.ErrRunNotFound),
		errors.Is(err, analysisdomain.ErrNotOwner),
		errors.Is(err, reportdomain.ErrReportNotFound),
		errors.Is(err, reportdomain.ErrNotOwner),
		errors.Is(err, trackingdomain.ErrConfigNotFound),
		errors.Is(err, trackingdomain.ErrNotOwner),
		errors.Is(err, apikeydomain.ErrNotFound),
		errors.Is(err, adminstatsdomain.ErrUserNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// classifyErrorForLog feeds the request logger a stable (type, code)
// pair without touching the response.
func classifyErrorForLog(err error) (string, string) {
	if vErr := asValidationErrors(err); vErr != nil {
		if len(vErr.Errors) > 0 {
			return "validation_error", vErr.Errors[0].Code
		}
		return "validation_error", "invalid_request"
	}
	if errType, ok := errorType(err); ok {
		return errType, errType
	}
	return "internal_error", "internal_error"
}
