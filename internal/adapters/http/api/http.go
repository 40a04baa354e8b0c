// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/skillbest/internal/domain/assignment"
	"github.com/okian/skillbest/internal/domain/dedupe"
	"github.com/okian/skillbest/internal/domain/model"
	"github.com/okian/skillbest/internal/domain/types"
)

const (
	defaultMaxLeaderboardLimit = 100
	maxBodyBytes               = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a sheet for async processing. Returns false on backpressure.
	Enqueue(ctx context.Context, s model.Sheet) bool

	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, competitorID string) (Entry, error)
	Competitor(ctx context.Context, competitorID string) (types.Competitor, error)

	Assignments(ctx context.Context) (types.AssignmentReport, error)
	Compute(ctx context.Context, scores assignment.Scores) (types.AssignmentReport, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Option configures the Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps GET /leaderboard?limit.
func WithMaxLeaderboardLimit(limit int) Option {
	return func(s *Server) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxLimit int

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	sheetsHandler      *SheetsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	competitorHandler  *CompetitorHandler
	assignmentsHandler *AssignmentsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{maxLimit: defaultMaxLeaderboardLimit}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.sheetsHandler = NewSheetsHandler(deps)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.rankHandler = NewRankHandler(deps)
	s.competitorHandler = NewCompetitorHandler(deps)
	s.assignmentsHandler = NewAssignmentsHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sheets", MetricsMiddleware(s.sheetsHandler.HandlePostSheet, "sheets"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/competitors/", MetricsMiddleware(s.competitorHandler.HandleGetCompetitor, "competitors"))
	mux.HandleFunc("/assignments", MetricsMiddleware(s.assignmentsHandler.HandleAssignments, "assignments"))
}

type ackResponse struct {
	Status       string `json:"status"`
	Duplicate    bool   `json:"duplicate"`
	SubmissionID string `json:"submission_id"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure picks the status from the error kind.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

// pathParam returns the single path segment after prefix, or "".
func pathParam(r *http.Request, prefix string) string {
	param, ok := strings.CutPrefix(r.URL.Path, prefix)
	if !ok || strings.Contains(param, "/") {
		return ""
	}
	return param
}
