package repository

import (
	"context"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/okian/skillbest/internal/domain/model"
	"github.com/okian/skillbest/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: total DESC, then competitor ID ASC. "less" means ranks earlier,
// so an in-order traversal yields the leaderboard from best to worst.
// Priorities are a hash of the competitor ID, which keeps the tree shape
// independent of insertion order.

const defaultMetricsUpdateInterval = 5 * time.Second

type record struct {
	total int64
	sheet model.Sheet
}

type node struct {
	id    string
	total int64
	prio  uint64
	left  *node
	right *node
}

func less(aTotal int64, aID string, bTotal int64, bID string) bool {
	if aTotal != bTotal {
		return aTotal > bTotal
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	return y
}

func insert(n *node, id string, total int64) *node {
	if n == nil {
		return &node{id: id, total: total, prio: xxh3.HashString(id)}
	}
	if less(total, id, n.total, n.id) {
		n.left = insert(n.left, id, total)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, total)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	return n
}

func deleteNode(n *node, id string, total int64) *node {
	if n == nil {
		return nil
	}
	switch {
	case total == n.total && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, total)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, total)
		}
	case less(total, id, n.total, n.id):
		n.left = deleteNode(n.left, id, total)
	default:
		n.right = deleteNode(n.right, id, total)
	}
	return n
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n) {
		return false
	}
	return walk(n.right, visit)
}

// TreapStore is an in-memory Store.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopOnce              sync.Once
	stopChan              chan struct{}
}

// NewTreapStore constructs a treap store and starts its metrics updater,
// which runs until ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[string]record),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Upsert stores sheet with its total in O(log n) expected time. A sheet with
// an older timestamp than the stored one is ignored.
func (s *TreapStore) Upsert(_ context.Context, sheet model.Sheet, total int64) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if sheet.CompetitorID == "" {
		return false, ErrInvalidSheet
	}

	s.mu.Lock()
	old, exists := s.byID[sheet.CompetitorID]
	if exists {
		if sheet.TS.Before(old.sheet.TS) {
			s.mu.Unlock()
			return false, nil
		}
		s.root = deleteNode(s.root, sheet.CompetitorID, old.total)
	}
	s.byID[sheet.CompetitorID] = record{total: total, sheet: sheet.Clone()}
	s.root = insert(s.root, sheet.CompetitorID, total)
	count := len(s.byID)
	s.mu.Unlock()

	if !exists {
		metrics.UpdateRepositoryRecordsTotal(count)
		metrics.UpdateTotalCompetitors(count)
	}
	return true, nil
}

// Rank returns the dense rank of a competitor. Competitors with equal totals
// share a rank and the next total gets the following rank.
func (s *TreapStore) Rank(_ context.Context, competitorID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[competitorID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}

	rank := 0
	var prev int64
	walk(s.root, func(n *node) bool {
		if n.total < rec.total {
			return false
		}
		if rank == 0 || n.total != prev {
			rank++
			prev = n.total
		}
		return true
	})

	return s.entry(rank, competitorID, rec), nil
}

// TopN returns the top N entries ordered by total desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	walk(s.root, func(nd *node) bool {
		out = append(out, s.entry(0, nd.id, s.byID[nd.id]))
		return len(out) < n
	})
	assignRanksWithTies(out)
	return out, nil
}

// Count returns the number of stored competitors.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Sheet returns a copy of the stored sheet for competitorID.
func (s *TreapStore) Sheet(_ context.Context, competitorID string) (model.Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[competitorID]
	if !ok {
		return model.Sheet{}, ErrNotFound
	}
	return rec.sheet.Clone(), nil
}

// Sheets returns a deep copy of all stored sheets. Later upserts do not
// affect the returned map.
func (s *TreapStore) Sheets(_ context.Context) map[string]model.Sheet {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.Sheet, len(s.byID))
	for id, rec := range s.byID {
		out[id] = rec.sheet.Clone()
	}
	return out
}

func (s *TreapStore) entry(rank int, id string, rec record) Entry {
	return Entry{
		Rank:         rank,
		CompetitorID: id,
		Total:        rec.total,
		SubmissionID: rec.sheet.SubmissionID,
		UpdatedAt:    rec.sheet.TS,
	}
}

func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				count := s.Count(ctx)
				metrics.UpdateRepositoryRecordsTotal(count)
				metrics.UpdateTotalCompetitors(count)
			}
		}
	}()
}

// assignRanksWithTies assigns dense ranks to entries already in rank order.
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Total != entries[i-1].Total {
			rank++
		}
		entries[i].Rank = rank
	}
}
