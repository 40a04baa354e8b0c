package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("competitor not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrInvalidSheet = errors.New("sheet has no competitor")
)
