package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	apikeydomain "github.com/traffictuner/traffictuner/internal/apikey/domain"
)

const apiKeyHeaderPrefix = "Bearer "

// APIKeyOrSession admits requests carrying either a valid API key in
// the Authorization header or a valid session cookie.
func (s *Server) APIKeyOrSession() gin.HandlerFunc {
	sessionAuth := s.SessionRequired()

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			sessionAuth(c)
			return
		}

		raw := strings.TrimPrefix(header, apiKeyHeaderPrefix)
		if raw == header || strings.TrimSpace(raw) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		key, err := s.authenticateAPIKey(c, strings.TrimSpace(raw))
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextUserIDKey, key.UserID)
		c.Set(contextAuthTypeKey, authTypeAPIKey)
		c.Set(contextAPIKeyIDKey, key.KeyID)
		c.Set(contextAPIKeyScopesKey, []string(key.Scopes))
		c.Next()
	}
}

func (s *Server) authenticateAPIKey(c *gin.Context, raw string) (*apikeydomain.APIKey, error) {
	hash := apikeydomain.HashAPIKey(raw)
	now := time.Now().UTC()

	var key apikeydomain.APIKey
	err := s.db.WithContext(c.Request.Context()).Raw(`
		SELECT *
		FROM api_keys
		WHERE key_hash = ?
		  AND is_active = true
		  AND (expires_at IS NULL OR expires_at > ?)
		LIMIT 1
	`, hash, now).Scan(&key).Error
	if err != nil {
		return nil, err
	}
	if key.ID == 0 {
		return nil, ErrUnauthorized
	}

	// Best effort; an unused timestamp never blocks the request.
	_ = s.db.WithContext(c.Request.Context()).Exec(
		"UPDATE api_keys SET last_used_at = ? WHERE id = ?", now, key.ID,
	).Error

	return &key, nil
}
