package domain

import "errors"

var (
	ErrReportNotFound = errors.New("report not found")
	ErrNotOwner       = errors.New("report belongs to another user")
)
