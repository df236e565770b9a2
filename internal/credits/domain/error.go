package domain

import "errors"

var (
	ErrInvalidUser         = errors.New("credit account user is required")
	ErrInvalidAmount       = errors.New("credit amount must be positive")
	ErrInvalidReference    = errors.New("credit entry reference is required")
	ErrInvalidKind         = errors.New("credit entry kind is invalid")
	ErrAccountNotFound     = errors.New("credit account not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
)
