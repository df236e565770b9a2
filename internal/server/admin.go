package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	adminstatsdomain "github.com/traffictuner/traffictuner/internal/adminstats/domain"
)

type grantCreditsRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

func (s *Server) GetAdminDashboard(c *gin.Context) {
	stats, err := s.adminSvc.Dashboard(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) GrantUserCredits(c *gin.Context) {
	adminID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	targetID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req grantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	balance, err := s.adminSvc.GrantCredits(c.Request.Context(), adminID, adminstatsdomain.GrantRequest{
		UserID:      targetID,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}
