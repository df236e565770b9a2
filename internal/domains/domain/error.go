package domain

import "errors"

var (
	ErrInvalidUser     = errors.New("domain user is required")
	ErrInvalidName     = errors.New("domain display name is required")
	ErrInvalidURL      = errors.New("domain url is invalid")
	ErrInsecureURL     = errors.New("domain url must use https")
	ErrInvalidStatus   = errors.New("domain status is invalid")
	ErrDomainNotFound  = errors.New("domain not found")
	ErrDomainExists    = errors.New("domain already registered")
	ErrNotOwner        = errors.New("domain belongs to another user")
	ErrStatusConflict  = errors.New("domain status changed concurrently")
	ErrDomainPaused    = errors.New("domain is paused")
	ErrDomainAnalyzing = errors.New("domain analysis already in progress")
)
