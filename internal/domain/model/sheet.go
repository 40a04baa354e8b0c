// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"maps"
	"strings"
	"time"
)

// ErrInvalidSheet is returned by Validate.
var ErrInvalidSheet = errors.New("invalid sheet")

// Sheet is one competitor's full score table as submitted by a client.
// A newer sheet for the same competitor replaces the older one.
type Sheet struct {
	SubmissionID string            // unique id for idempotency
	CompetitorID string            // competitor identifier
	Scores       map[string]string // category -> raw score text
	TS           time.Time         // submission timestamp
}

// Validate checks the fields required for ingestion.
func (s Sheet) Validate() error {
	switch {
	case strings.TrimSpace(s.SubmissionID) == "":
		return errors.Join(ErrInvalidSheet, errors.New("submission_id is required"))
	case strings.TrimSpace(s.CompetitorID) == "":
		return errors.Join(ErrInvalidSheet, errors.New("competitor_id is required"))
	case len(s.Scores) == 0:
		return errors.Join(ErrInvalidSheet, errors.New("scores must not be empty"))
	}
	return nil
}

// Clone returns a copy that shares no maps with s.
func (s Sheet) Clone() Sheet {
	s.Scores = maps.Clone(s.Scores)
	return s
}

// CompetitorTotal is a competitor's aggregate used for the totals leaderboard.
type CompetitorTotal struct {
	CompetitorID string
	Total        int64
}
