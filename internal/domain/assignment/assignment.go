// Package assignment computes "skill best" winners: each category goes to at
// most one competitor, no competitor wins more than a fixed number of
// categories, and higher scores are preferred.
//
// The algorithm is a greedy claim of every category's top scorer followed by
// bounded roll-down/upgrade passes. It is deterministic but order dependent:
// competitors are always visited in ascending lexical ID order.
package assignment

import "strings"

// Default engine configuration constants.
const (
	DefaultCapacity         = 3
	DefaultReservedCategory = "overall"
	DefaultNoDataSentinel   = "--"

	// extraPasses is added to the competitor count to bound the improvement loop.
	extraPasses = 5
)

// Scores maps a competitor ID to its raw category name -> raw score text.
type Scores map[string]map[string]string

// RankEntry is one competitor's parsed score in a category.
type RankEntry struct {
	CompetitorID string
	Score        int64
}

// Rankings maps a normalized category to its entries, best score first.
type Rankings map[string][]RankEntry

// Assignment maps a normalized category to its winning competitor.
// Unassigned categories are absent.
type Assignment map[string]string

// Result is the outcome of one engine run.
type Result struct {
	Winners  Assignment
	Rankings Rankings

	// Passes is the number of improvement passes executed, including the
	// final pass that made no change.
	Passes int
	// Claims counts grants made by the initial raw-best pass.
	Claims int
	// RollDowns counts categories claimed during improvement passes.
	RollDowns int
	// Swaps counts upgrades that replaced a competitor's weakest category.
	Swaps int
}

// ScoreOf returns the score the winner of category holds in it.
func (r Result) ScoreOf(category string) (int64, bool) {
	winner, ok := r.Winners[category]
	if !ok {
		return 0, false
	}
	return r.Rankings.scoreOf(category, winner)
}

// Engine runs the assignment algorithm with a fixed configuration.
// An Engine holds no state between runs and is safe for concurrent use.
type Engine struct {
	capacity int
	reserved string
	sentinel string
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCapacity sets how many categories a single competitor may win.
func WithCapacity(capacity int) Option {
	return func(e *Engine) {
		if capacity > 0 {
			e.capacity = capacity
		}
	}
}

// WithReservedCategory sets the category name that is never assigned.
func WithReservedCategory(name string) Option {
	return func(e *Engine) {
		if name = NormalizeCategory(name); name != "" {
			e.reserved = name
		}
	}
}

// WithNoDataSentinel sets the placeholder text that marks a missing score.
func WithNoDataSentinel(sentinel string) Option {
	return func(e *Engine) {
		if sentinel = strings.TrimSpace(sentinel); sentinel != "" {
			e.sentinel = sentinel
		}
	}
}

// New creates an Engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		capacity: DefaultCapacity,
		reserved: DefaultReservedCategory,
		sentinel: DefaultNoDataSentinel,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Capacity returns the per-competitor category limit.
func (e *Engine) Capacity() int { return e.capacity }

// Assign runs the default engine and returns only the winners.
func Assign(scores Scores) Assignment {
	return New().Assign(scores).Winners
}

// Assign computes the winners for scores. The input is only read.
func (e *Engine) Assign(scores Scores) Result {
	rankings, order := e.buildRankings(scores)
	res := Result{
		Winners:  Assignment{},
		Rankings: rankings,
	}
	if len(rankings) == 0 {
		return res
	}

	st := newState(e.capacity, rankings)
	res.Claims = st.claimRawBest(order)

	competitors := sortedKeys(scores)
	categories := e.categories(scores)
	maxPasses := len(competitors) + extraPasses

	for pass := 0; pass < maxPasses; pass++ {
		res.Passes++
		if !st.improve(competitors, categories) {
			break
		}
	}

	res.Winners = st.winners
	res.RollDowns = st.rollDowns
	res.Swaps = st.swaps
	return res
}
