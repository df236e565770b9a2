package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
)

type createDomainRequest struct {
	URL         string `json:"url"`
	DisplayName string `json:"display_name"`
}

type updateDomainRequest struct {
	DisplayName *string `json:"display_name"`
	Status      *string `json:"status"`
}

type analyzeDomainRequest struct {
	AnalysisType string `json:"analysis_type"`
}

func (s *Server) ListDomains(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	domains, err := s.domainsSvc.List(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"domains": domains})
}

func (s *Server) CreateDomain(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	d, err := s.domainsSvc.Create(c.Request.Context(), domainsdomain.CreateRequest{
		UserID:      userID,
		URL:         req.URL,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (s *Server) GetDomainByID(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	d, err := s.domainsSvc.Get(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) UpdateDomain(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.DisplayName == nil && req.Status == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	var d *domainsdomain.Domain

	if req.Status != nil {
		switch strings.TrimSpace(*req.Status) {
		case domainsdomain.StatusActive:
			d, err = s.domainsSvc.SetPaused(ctx, userID, id, false)
		case domainsdomain.StatusPaused:
			d, err = s.domainsSvc.SetPaused(ctx, userID, id, true)
		default:
			err = domainsdomain.ErrInvalidStatus
		}
		if err != nil {
			AbortWithError(c, err)
			return
		}
	}

	if req.DisplayName != nil {
		d, err = s.domainsSvc.Rename(ctx, userID, id, *req.DisplayName)
		if err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, d)
}

func (s *Server) AnalyzeDomain(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req analyzeDomainRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	ctx := c.Request.Context()
	if s.guard.Enabled() && !s.guard.AllowAnalyze(ctx, userID) {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	receipt, err := s.analysisSvc.RequestAnalysis(ctx, userID, id, req.AnalysisType)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, receipt)
}

func (s *Server) ListDomainRuns(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	runs, err := s.analysisSvc.ListRuns(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) ListDomainReports(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	page, perPage, err := parsePagination(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.reportsSvc.ListForDomain(c.Request.Context(), userID, id, page, perPage)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) GetDomainScoreTrend(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	limit, err := parseOptionalInt(c, "limit", 10)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	trend, err := s.reportsSvc.ScoreTrend(c.Request.Context(), userID, id, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trend": trend})
}

func (s *Server) GetDomainTrackingCode(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	code, err := s.trackingSvc.CodeForDomain(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}
