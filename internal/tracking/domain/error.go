package domain

import "errors"

var (
	ErrInvalidUser             = errors.New("tracking configuration user is required")
	ErrUnknownPlatform         = errors.New("unknown tracking platform")
	ErrInvalidTrackingID       = errors.New("tracking id does not match the platform format")
	ErrInvalidName             = errors.New("tracking configuration name is required")
	ErrConfigNotFound          = errors.New("tracking configuration not found")
	ErrNotOwner                = errors.New("tracking configuration belongs to another user")
	ErrConflictingActiveConfig = errors.New("an active configuration already exists for this platform and scope")
)
