package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 50

func (s *Server) GetCreditBalance(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	balance, err := s.creditsSvc.Balance(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (s *Server) GetCreditHistory(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	limit, err := parseOptionalInt(c, "limit", defaultHistoryLimit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entries, err := s.creditsSvc.History(c.Request.Context(), userID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
