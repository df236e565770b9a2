package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const (
	contextUserIDKey       = "user_id"
	contextAuthTypeKey     = "auth_type"
	contextAPIKeyIDKey     = "api_key_id"
	contextAPIKeyScopesKey = "api_key_scopes"
)

const (
	authTypeSession = "session"
	authTypeAPIKey  = "api_key"
)

// SessionRequired authenticates the session cookie and stores the
// user id on the request context.
func (s *Server) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sess, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextUserIDKey, sess.UserID)
		c.Set(contextAuthTypeKey, authTypeSession)
		c.Next()
	}
}

// SessionOnly rejects requests authenticated with an API key. Key
// management endpoints require an interactive session.
func (s *Server) SessionOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authType, _ := c.Get(contextAuthTypeKey); authType != authTypeSession {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireAdmin loads the authenticated user and checks the
// administrative capability for its role.
func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authsvc.UserByID(c.Request.Context(), userID)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := s.authzSvc.CanAdministrate(c.Request.Context(), user.Role); err != nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireScope enforces an API key scope. Session-authenticated
// requests carry the user's full authority and always pass.
func (s *Server) RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authType, _ := c.Get(contextAuthTypeKey)
		if authType != authTypeAPIKey {
			c.Next()
			return
		}

		scopes, _ := c.Get(contextAPIKeyScopesKey)
		granted, _ := scopes.([]string)
		for _, g := range granted {
			if g == scope {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

func userIDFromContext(c *gin.Context) (snowflake.ID, bool) {
	raw, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := raw.(snowflake.ID)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}
