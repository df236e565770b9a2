package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Scopes granted to programmatic keys. Read covers every GET on the API
// surface; analysis gates the credit-consuming analyze endpoint.
const (
	ScopeRead    = "read"
	ScopeAnalyze = "analysis:write"
)

// DefaultScopes are applied when a create request names none.
var DefaultScopes = []string{ScopeRead}

type Service interface {
	List(ctx context.Context, userID snowflake.ID) ([]Response, error)
	Create(ctx context.Context, userID snowflake.ID, req CreateRequest) (*SecretResponse, error)
	// Rotate issues a replacement secret and leaves the old key valid
	// for a short grace window.
	Rotate(ctx context.Context, userID snowflake.ID, keyID string) (*SecretResponse, error)
	Revoke(ctx context.Context, userID snowflake.ID, keyID string) error
}

type CreateRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

type Response struct {
	KeyID            string     `json:"key_id"`
	Name             string     `json:"name"`
	Scopes           []string   `json:"scopes"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	LastUsedAt       *time.Time `json:"last_used_at"`
	ExpiresAt        *time.Time `json:"expires_at"`
	RotatedFromKeyID *string    `json:"rotated_from_key_id"`
}

type SecretResponse struct {
	KeyID  string `json:"key_id"`
	APIKey string `json:"api_key"`
}

var (
	ErrInvalidUser  = errors.New("invalid_user")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidScope = errors.New("invalid_scope")
	ErrInvalidKeyID = errors.New("invalid_key_id")
	ErrNotFound     = errors.New("not_found")
)

// ValidScope reports whether scope names a known capability.
func ValidScope(scope string) bool {
	switch scope {
	case ScopeRead, ScopeAnalyze:
		return true
	default:
		return false
	}
}
