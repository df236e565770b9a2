package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/traffictuner/traffictuner/internal/auth/domain"
	creditsdomain "github.com/traffictuner/traffictuner/internal/credits/domain"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID    string         `json:"user_id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Role      string         `json:"role"`
	IsNewUser bool           `json:"is_new_user"`
	ExpiresAt string         `json:"expires_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (s *Server) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		AbortWithError(c, newValidationError("email", "required", "email is required"))
		return
	}

	ctx := c.Request.Context()
	user, err := s.authsvc.CreateUser(ctx, authdomain.CreateUserRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Trial grant is idempotent per user; a crashed signup retried by
	// the client never double-grants.
	if err := s.creditsSvc.Grant(ctx, user.ID, creditsdomain.TrialCredits,
		"signup:"+user.ID.String(), "trial credits"); err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.authsvc.Login(ctx, authdomain.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusCreated, loginResponse(result))
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()

	if s.guard.Enabled() && s.guard.LoginBlocked(ctx, ip) {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	result, err := s.authsvc.Login(ctx, authdomain.LoginRequest{
		Email:     strings.TrimSpace(strings.ToLower(req.Email)),
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: ip,
	})
	if err != nil {
		if s.guard.Enabled() {
			s.guard.RegisterLoginFailure(ctx, ip)
		}
		AbortWithError(c, err)
		return
	}

	if s.guard.Enabled() {
		s.guard.ResetLoginFailures(ctx, ip)
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, loginResponse(result))
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		_ = s.authsvc.Logout(c.Request.Context(), token)
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (s *Server) SessionInfo(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()
	sess, err := s.authsvc.Authenticate(ctx, token)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.authsvc.UserByID(ctx, sess.UserID)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		IsNewUser: user.IsNewUser,
		ExpiresAt: sess.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func loginResponse(result *authdomain.LoginResult) sessionResponse {
	resp := sessionResponse{
		UserID:    result.User.ID.String(),
		Email:     result.User.Email,
		Name:      result.User.Name,
		Role:      result.User.Role,
		IsNewUser: result.User.IsNewUser,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if result.Session != nil {
		resp.Metadata = result.Session.Metadata
	}
	return resp
}
