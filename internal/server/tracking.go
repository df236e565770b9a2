package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	trackingdomain "github.com/traffictuner/traffictuner/internal/tracking/domain"
)

type createTrackingConfigRequest struct {
	Platform   string  `json:"platform"`
	TrackingID string  `json:"tracking_id"`
	Name       string  `json:"name"`
	DomainID   *string `json:"domain_id"`
	IsActive   *bool   `json:"is_active"`
}

type updateTrackingConfigRequest struct {
	TrackingID *string `json:"tracking_id"`
	Name       *string `json:"name"`
	IsActive   *bool   `json:"is_active"`
	DomainID   *string `json:"domain_id"`
	// ClearDomain widens a domain-scoped configuration back to all
	// of the user's domains.
	ClearDomain bool `json:"clear_domain"`
}

type bulkToggleRequest struct {
	IDs      []string `json:"ids"`
	IsActive bool     `json:"is_active"`
}

func (s *Server) ListTrackingPlatforms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"platforms": s.trackingSvc.Platforms()})
}

func (s *Server) ListTrackingConfigs(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()
	if raw := strings.TrimSpace(c.Query("domain_id")); raw != "" {
		domainID, err := snowflake.ParseString(raw)
		if err != nil || domainID == 0 {
			AbortWithError(c, newValidationError("domain_id", "invalid", "domain_id is not a valid id"))
			return
		}
		configs, err := s.trackingSvc.ListForDomain(ctx, userID, domainID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"configs": configs})
		return
	}

	configs, err := s.trackingSvc.ListForUser(ctx, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

func (s *Server) CreateTrackingConfig(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createTrackingConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	domainID, err := parseOptionalIDField(req.DomainID, "domain_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	config, err := s.trackingSvc.Create(c.Request.Context(), trackingdomain.CreateRequest{
		UserID:     userID,
		Platform:   req.Platform,
		TrackingID: req.TrackingID,
		Name:       req.Name,
		DomainID:   domainID,
		IsActive:   isActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, config)
}

func (s *Server) GetTrackingConfigByID(c *gin.Context) {
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

	config, err := s.trackingSvc.Get(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

func (s *Server) UpdateTrackingConfig(c *gin.Context) {
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

	var req updateTrackingConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := trackingdomain.UpdateRequest{
		TrackingID: req.TrackingID,
		Name:       req.Name,
		IsActive:   req.IsActive,
	}
	switch {
	case req.ClearDomain:
		update.SetDomainID = true
	case req.DomainID != nil:
		domainID, err := parseOptionalIDField(req.DomainID, "domain_id")
		if err != nil {
			AbortWithError(c, err)
			return
		}
		update.DomainID = domainID
		update.SetDomainID = true
	}

	config, err := s.trackingSvc.Update(c.Request.Context(), userID, id, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

func (s *Server) DeleteTrackingConfig(c *gin.Context) {
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

	if err := s.trackingSvc.Delete(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) GetTrackingConfigCode(c *gin.Context) {
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

	code, err := s.trackingSvc.CodeForConfig(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code})
}

func (s *Server) BulkToggleTrackingConfigs(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req bulkToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.IDs) == 0 {
		AbortWithError(c, newValidationError("ids", "required", "ids must not be empty"))
		return
	}

	ids := make([]snowflake.ID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil || id == 0 {
			AbortWithError(c, newValidationError("ids", "invalid", "ids contains an invalid id"))
			return
		}
		ids = append(ids, id)
	}

	updated, err := s.trackingSvc.BulkToggle(c.Request.Context(), userID, ids, req.IsActive)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func parseOptionalIDField(raw *string, field string) (*snowflake.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(strings.TrimSpace(*raw))
	if err != nil || id == 0 {
		return nil, newValidationError(field, "invalid", field+" is not a valid id")
	}
	return &id, nil
}
