// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	sheetqueue "github.com/okian/skillbest/internal/adapters/mq/queue"
	workerpool "github.com/okian/skillbest/internal/adapters/mq/worker"
	repository "github.com/okian/skillbest/internal/adapters/repository"
	"github.com/okian/skillbest/internal/domain/assignment"
	"github.com/okian/skillbest/internal/domain/dedupe"
	"github.com/okian/skillbest/internal/domain/model"
	"github.com/okian/skillbest/internal/domain/scoring"
	"github.com/okian/skillbest/internal/domain/types"
	"github.com/okian/skillbest/pkg/logger"
	"github.com/okian/skillbest/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// ErrNotStarted is returned by operations that need the running pipeline.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the skill-best system.
type Service struct {
	mu sync.RWMutex

	store   *repository.TreapStore
	deduper dedupe.Deduper
	queue   sheetqueue.Queue
	scorer  *scoring.SheetScorer
	engine  *assignment.Engine
	pool    *workerpool.Pool

	workerCount int
	queueSize   int
	dedupeSize  int
	engineOpts  []assignment.Option
	cutoff      string

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the sheet queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the number of submission IDs remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEngineOptions configures the assignment engine.
func WithEngineOptions(opts ...assignment.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithCutoffCompetitor limits stored-roster assignment runs to competitors
// sorted before id. An unknown id leaves everyone eligible.
func WithCutoffCompetitor(id string) Option {
	return func(s *Service) {
		s.cutoff = strings.TrimSpace(id)
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   10_000,
		dedupeSize:  100_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = assignment.New(s.engineOpts...)
	s.scorer = scoring.NewSheetScorer(scoring.WithEngine(s.engine))
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	s.store = repository.NewTreapStore(ctx)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = sheetqueue.NewInMemoryQueue(sheetqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.scorer, s.store)
	s.pool.Start(ctx)
	metrics.UpdateWorkerCount(s.workerCount)

	s.started = true
	s.logger.Info(ctx, "skill-best service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("capacity", s.engine.Capacity()),
		logger.String("cutoff", s.cutoff),
	)
	return nil
}

// Stop drains the queue and shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	_ = s.store.Close()

	s.started = false
	s.logger.Info(ctx, "skill-best service stopped")
}

// SeenAndRecord atomically checks if a submission id was seen and records it
// if not. Before Start nothing is remembered, so every id reads as new and the
// following Enqueue reports backpressure.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	d := s.dedupeSet()
	if d == nil {
		return false
	}
	seen := d.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordSheetDuplicate()
	}
	return seen
}

// Unrecord removes a submission id so it can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	if d := s.dedupeSet(); d != nil {
		d.Unrecord(ctx, id)
	}
}

// Size returns the number of remembered submission ids.
func (s *Service) Size() int64 {
	d := s.dedupeSet()
	if d == nil {
		return 0
	}
	return d.Size()
}

func (s *Service) dedupeSet() dedupe.Deduper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deduper
}

// Enqueue submits a sheet for asynchronous processing. Returns false on
// backpressure or when the service is not running.
func (s *Service) Enqueue(ctx context.Context, sheet model.Sheet) bool { //nolint:gocritic // hugeParam: Sheet is passed by value for channel semantics
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return false
	}
	s.logger.Debug(ctx, "enqueueing sheet",
		logger.String("submission_id", sheet.SubmissionID),
		logger.String("competitor_id", sheet.CompetitorID),
		logger.Int("categories", len(sheet.Scores)),
	)
	return s.queue.Enqueue(ctx, sheet.Clone())
}

// TopN returns the top N competitors by total.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	store, err := s.running()
	if err != nil {
		return nil, err
	}
	entries, err := store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{Rank: e.Rank, CompetitorID: e.CompetitorID, Total: e.Total}
	}
	return out, nil
}

// Rank returns the rank and total for a competitor.
func (s *Service) Rank(ctx context.Context, competitorID string) (types.Entry, error) {
	store, err := s.running()
	if err != nil {
		return types.Entry{}, err
	}
	e, err := store.Rank(ctx, competitorID)
	if err != nil {
		return types.Entry{}, err
	}
	return types.Entry{Rank: e.Rank, CompetitorID: e.CompetitorID, Total: e.Total}, nil
}

// Competitor returns one competitor's parsed sheet, rank and the categories
// they win in the current assignment.
func (s *Service) Competitor(ctx context.Context, competitorID string) (types.Competitor, error) {
	store, err := s.running()
	if err != nil {
		return types.Competitor{}, err
	}
	sheet, err := store.Sheet(ctx, competitorID)
	if err != nil {
		return types.Competitor{}, err
	}
	entry, err := store.Rank(ctx, competitorID)
	if err != nil {
		return types.Competitor{}, err
	}

	out := types.Competitor{
		CompetitorID: competitorID,
		Rank:         entry.Rank,
		Total:        entry.Total,
		Categories:   make([]types.CategoryScore, 0, len(sheet.Scores)),
	}
	for _, category := range sortedKeys(sheet.Scores) {
		raw := sheet.Scores[category]
		if s.engine.Reserved(category) {
			continue
		}
		v, ok := s.engine.ParseScore(raw)
		out.Categories = append(out.Categories, types.CategoryScore{
			Category: assignment.NormalizeCategory(category),
			Raw:      raw,
			Score:    v,
			HasScore: ok,
		})
	}

	report, err := s.Assignments(ctx)
	if err != nil {
		return types.Competitor{}, err
	}
	for _, w := range report.Winners {
		if w.CompetitorID == competitorID {
			out.Won = append(out.Won, w.Category)
		}
	}
	return out, nil
}

// Assignments runs the engine over an immutable snapshot of the stored
// sheets, restricted to eligible competitors.
func (s *Service) Assignments(ctx context.Context) (types.AssignmentReport, error) {
	store, err := s.running()
	if err != nil {
		return types.AssignmentReport{}, err
	}

	sheets := store.Sheets(ctx)
	scores := make(assignment.Scores, len(sheets))
	for id, sheet := range sheets {
		scores[id] = sheet.Scores
	}

	eligible := Eligible(scores, s.cutoff)
	report, err := s.run(ctx, eligible)
	if err != nil {
		return types.AssignmentReport{}, err
	}
	report.Excluded = len(scores) - len(eligible)
	return report, nil
}

// Compute runs the engine over a caller-supplied snapshot. The cutoff does
// not apply: the caller chose the roster.
func (s *Service) Compute(ctx context.Context, scores assignment.Scores) (types.AssignmentReport, error) {
	return s.run(ctx, scores)
}

func (s *Service) run(ctx context.Context, scores assignment.Scores) (types.AssignmentReport, error) {
	if err := ctx.Err(); err != nil {
		return types.AssignmentReport{}, fmt.Errorf("assignment run: %w", err)
	}

	start := time.Now()
	res := s.engine.Assign(scores)
	elapsed := time.Since(start)

	report := types.AssignmentReport{
		Winners:     make([]types.Winner, 0, len(res.Winners)),
		Unassigned:  []string{},
		Competitors: len(scores),
		Capacity:    s.engine.Capacity(),
		Passes:      res.Passes,
		Claims:      res.Claims,
		RollDowns:   res.RollDowns,
		Swaps:       res.Swaps,
	}
	for _, category := range sortedKeys(res.Rankings) {
		winner, ok := res.Winners[category]
		if !ok {
			report.Unassigned = append(report.Unassigned, category)
			continue
		}
		score, _ := res.ScoreOf(category)
		report.Winners = append(report.Winners, types.Winner{Category: category, CompetitorID: winner, Score: score})
	}

	metrics.RecordAssignmentRun(float64(elapsed.Microseconds())/1000, res.Passes, res.RollDowns, res.Swaps, len(res.Winners))
	if s.logger != nil {
		s.logger.Debug(ctx, "assignment computed",
			logger.Int("competitors", len(scores)),
			logger.Int("assigned", len(res.Winners)),
			logger.Int("passes", res.Passes),
			logger.Duration("took", elapsed),
		)
	}
	return report, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"capacity":    s.engine.Capacity(),
	}
	if s.started {
		ctx := context.Background()
		queueLen := s.queue.Len(ctx)
		competitors := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalCompetitors"] = competitors
		stats["seenSubmissions"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalCompetitors(competitors)
	}
	return stats
}

func (s *Service) running() (*repository.TreapStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Eligible returns the competitors taking part in a stored-roster run. When
// cutoff matches a competitor ID case-insensitively, only competitors sorted
// before it are kept; otherwise all are.
func Eligible(scores assignment.Scores, cutoff string) assignment.Scores {
	if cutoff == "" {
		return scores
	}
	ids := sortedKeys(scores)
	idx := slices.IndexFunc(ids, func(id string) bool { return strings.EqualFold(id, cutoff) })
	if idx < 0 {
		return scores
	}

	out := make(assignment.Scores, idx)
	for _, id := range ids[:idx] {
		out[id] = scores[id]
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
