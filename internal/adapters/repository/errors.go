package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound         = errors.New("player not found")
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrInvalidLimit     = errors.New("invalid leaderboard limit")
	ErrInvalidScore     = errors.New("invalid score")
	ErrEmptyID          = errors.New("empty id")
)
