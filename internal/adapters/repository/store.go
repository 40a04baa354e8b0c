// Package repository stores the latest score sheet per competitor and keeps
// competitors ordered by total.
package repository

import (
	"context"
	"time"

	"github.com/okian/skillbest/internal/domain/model"
)

// Entry represents a totals leaderboard row.
type Entry struct {
	Rank         int
	CompetitorID string
	Total        int64
	SubmissionID string
	UpdatedAt    time.Time
}

// Store provides read/write access to stored sheets.
type Store interface {
	// Upsert replaces the competitor's sheet unless the stored one is newer.
	// Returns true if the store changed.
	Upsert(ctx context.Context, sheet model.Sheet, total int64) (bool, error)

	// Rank returns the current dense rank and total for a competitor.
	// Returns ErrNotFound if the competitor is unknown.
	Rank(ctx context.Context, competitorID string) (Entry, error)

	// TopN returns the top-N entries ordered by total desc, competitor asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of competitors with a stored sheet.
	Count(ctx context.Context) int

	// Sheet returns a copy of one competitor's sheet.
	Sheet(ctx context.Context, competitorID string) (model.Sheet, error)

	// Sheets returns a deep copy of every stored sheet keyed by competitor.
	Sheets(ctx context.Context) map[string]model.Sheet
}
