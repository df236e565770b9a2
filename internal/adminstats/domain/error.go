package domain

import "errors"

var (
	ErrInvalidUser   = errors.New("invalid_user")
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrUserNotFound  = errors.New("user_not_found")
)
