package domain

import "errors"

var (
	ErrInvalidType    = errors.New("unknown analysis type")
	ErrConflictingRun = errors.New("an analysis is already in progress for this domain")
	ErrRunNotFound    = errors.New("analysis run not found")
	ErrNotOwner       = errors.New("analysis run belongs to another user")
)
