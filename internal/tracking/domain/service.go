package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreateRequest struct {
	UserID     snowflake.ID
	Platform   string
	TrackingID string
	Name       string
	// DomainID scopes the configuration to one domain; nil means all
	// of the user's domains.
	DomainID *snowflake.ID
	IsActive bool
}

// UpdateRequest carries partial updates. Platform is immutable once
// created; changing it is delete plus create. SetDomainID gates DomainID
// so the scope can be cleared back to all domains.
type UpdateRequest struct {
	TrackingID  *string
	Name        *string
	IsActive    *bool
	DomainID    *snowflake.ID
	SetDomainID bool
}

// DomainCode is the generated embed fragment for one domain.
type DomainCode struct {
	DomainID snowflake.ID      `json:"domain_id"`
	Snippets []RenderedSnippet `json:"snippets"`
	Combined string            `json:"combined_code"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*TrackingConfiguration, error)
	Update(ctx context.Context, userID, id snowflake.ID, req UpdateRequest) (*TrackingConfiguration, error)
	// Delete is idempotent; removing an unknown configuration is a no-op.
	Delete(ctx context.Context, userID, id snowflake.ID) error
	Get(ctx context.Context, userID, id snowflake.ID) (*TrackingConfiguration, error)
	ListForUser(ctx context.Context, userID snowflake.ID) ([]TrackingConfiguration, error)
	ListForDomain(ctx context.Context, userID, domainID snowflake.ID) ([]TrackingConfiguration, error)
	BulkToggle(ctx context.Context, userID snowflake.ID, ids []snowflake.ID, active bool) (int64, error)
	// CodeForConfig renders one configuration's snippet regardless of its
	// active flag, for preview before activation.
	CodeForConfig(ctx context.Context, userID, id snowflake.ID) (string, error)
	// CodeForDomain renders the combined fragment from the active
	// configurations applicable to the domain, read at one consistent
	// point in time.
	CodeForDomain(ctx context.Context, userID, domainID snowflake.ID) (*DomainCode, error)
	Platforms() []PlatformDescriptor
}
