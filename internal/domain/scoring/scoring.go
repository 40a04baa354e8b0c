// Package scoring computes competitor totals from raw score sheets.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/skillbest/internal/domain/assignment"
)

// Option applies a configuration option to the SheetScorer.
type Option func(*SheetScorer)

// WithEngine sets the engine whose parsing rules decide what counts.
func WithEngine(engine *assignment.Engine) Option {
	return func(s *SheetScorer) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// Input abstracts the sheet fields needed for scoring.
type Input struct {
	CompetitorID string
	Scores       map[string]string
}

// Result contains the computed total for a competitor.
type Result struct {
	CompetitorID string
	Total        int64
	Counted      int // categories that contributed to Total
}

// Scorer computes a total from an input.
type Scorer interface {
	// Score computes a total, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// SheetScorer sums every parseable category except the reserved aggregate.
type SheetScorer struct {
	engine *assignment.Engine
}

// NewSheetScorer creates a scorer using the default engine rules unless overridden.
func NewSheetScorer(opts ...Option) *SheetScorer {
	s := &SheetScorer{engine: assignment.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the total for the given input. Sentinel and malformed values
// are skipped, not rejected.
func (s *SheetScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}

	res := Result{CompetitorID: in.CompetitorID}
	for category, raw := range in.Scores {
		if s.engine.Reserved(category) {
			continue
		}
		v, ok := s.engine.ParseScore(raw)
		if !ok {
			continue
		}
		if res.Total > math.MaxInt64-v {
			return Result{}, fmt.Errorf("%w: total for %s", ErrOverflow, in.CompetitorID)
		}
		res.Total += v
		res.Counted++
	}
	return res, nil
}
