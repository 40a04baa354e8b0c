package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/okian/skillbest/internal/domain/assignment"
	"github.com/okian/skillbest/pkg/logger"
)

// maxSnapshot bounds the competitors sent to POST /assignments so the body
// stays under the server's request limit.
const maxSnapshot = 500

// ErrMismatch reports a server answer that disagrees with the local engine.
var ErrMismatch = errors.New("result mismatch")

// report is the subset of an assignment report the verifier reads.
type report struct {
	winners     assignment.Assignment
	scores      map[string]int64
	capacity    int
	competitors int
	excluded    int
}

func parseReport(doc gjson.Result) (report, error) {
	r := report{
		winners:     assignment.Assignment{},
		scores:      map[string]int64{},
		capacity:    int(doc.Get("capacity").Int()),
		competitors: int(doc.Get("competitors").Int()),
		excluded:    int(doc.Get("excluded").Int()),
	}
	var err error
	doc.Get("winners").ForEach(func(_, w gjson.Result) bool {
		category := w.Get("category").String()
		if _, dup := r.winners[category]; dup {
			err = fmt.Errorf("%w: category %q awarded twice", ErrMismatch, category)
			return false
		}
		r.winners[category] = w.Get("competitor_id").String()
		r.scores[category] = w.Get("score").Int()
		return true
	})
	if err == nil && r.capacity < 1 {
		err = fmt.Errorf("%w: capacity %d", ErrMismatch, r.capacity)
	}
	return r, err
}

// snapshot turns the sheets into the engine's input table.
func snapshot(sheets []Sheet) assignment.Scores {
	out := make(assignment.Scores, len(sheets))
	for _, s := range sheets {
		out[s.CompetitorID] = s.Scores
	}
	return out
}

// compareWinners checks got against an engine run over the same sheets.
func compareWinners(engine *assignment.Engine, scores assignment.Scores, got report) error {
	want := engine.Assign(scores)
	if len(want.Winners) != len(got.winners) {
		return fmt.Errorf("%w: %d categories assigned, expected %d", ErrMismatch, len(got.winners), len(want.Winners))
	}

	held := map[string]int{}
	for category, competitor := range want.Winners {
		if got.winners[category] != competitor {
			return fmt.Errorf("%w: category %q won by %q, expected %q", ErrMismatch, category, got.winners[category], competitor)
		}
		score, _ := want.ScoreOf(category)
		if got.scores[category] != score {
			return fmt.Errorf("%w: category %q scored %d, expected %d", ErrMismatch, category, got.scores[category], score)
		}
		held[competitor]++
		if held[competitor] > got.capacity {
			return fmt.Errorf("%w: %q holds more than %d categories", ErrMismatch, competitor, got.capacity)
		}
	}
	return nil
}

// verifyAssignments checks the posted-snapshot run always, and the stored
// run when the server holds exactly this run's competitors.
func verifyAssignments(ctx context.Context, config *Config, client *httpClient, sheets []Sheet, stats *Stats) error {
	log := logger.Named("loadgen")

	sample := sheets[:min(len(sheets), maxSnapshot)]
	status, doc, err := client.post(ctx, config.BaseURL+"/assignments", map[string]any{"scores": snapshot(sample)})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("POST /assignments returned %d", status)
	}
	posted, err := parseReport(doc)
	if err != nil {
		return err
	}
	engine := assignment.New(
		assignment.WithCapacity(posted.capacity),
		assignment.WithReservedCategory(config.ReservedCategory),
		assignment.WithNoDataSentinel(config.NoDataSentinel),
	)
	if err := compareWinners(engine, snapshot(sample), posted); err != nil {
		return fmt.Errorf("posted snapshot: %w", err)
	}
	log.Info(ctx, "snapshot assignment verified", logger.Int("competitors", len(sample)), logger.Int("assigned", len(posted.winners)))

	status, doc, err = client.get(ctx, config.BaseURL+"/assignments")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET /assignments returned %d", status)
	}
	stored, err := parseReport(doc)
	if err != nil {
		return err
	}
	stats.CategoriesAssigned = len(stored.winners)

	if stored.excluded > 0 || stored.competitors != len(sheets) {
		log.Warn(ctx, "stored roster differs from this run; skipping exact comparison",
			logger.Int("serverCompetitors", stored.competitors),
			logger.Int("excluded", stored.excluded),
			logger.Int("sent", len(sheets)))
		return nil
	}
	if err := compareWinners(engine, snapshot(sheets), stored); err != nil {
		return fmt.Errorf("stored sheets: %w", err)
	}
	log.Info(ctx, "stored assignment verified", logger.Int("assigned", len(stored.winners)))
	return nil
}

// verifyLeaderboard checks ordering and dense ranks, and the totals of every
// competitor this run sent.
func verifyLeaderboard(ctx context.Context, config *Config, client *httpClient, sheets []Sheet, stats *Stats) error {
	status, doc, err := client.get(ctx, config.BaseURL+"/leaderboard?limit="+strconv.Itoa(config.TopN))
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET /leaderboard returned %d", status)
	}

	engine := assignment.New(
		assignment.WithReservedCategory(config.ReservedCategory),
		assignment.WithNoDataSentinel(config.NoDataSentinel),
	)
	totals := make(map[string]int64, len(sheets))
	for _, s := range sheets {
		totals[s.CompetitorID] = sheetTotal(engine, s.Scores)
	}

	entries := doc.Array()
	stats.LeaderboardEntries = len(entries)
	for i, e := range entries {
		id := e.Get("competitor_id").String()
		total := e.Get("total").Int()
		rank := e.Get("rank").Int()

		if want, ok := totals[id]; ok && want != total {
			return fmt.Errorf("%w: %q total %d, expected %d", ErrMismatch, id, total, want)
		}
		if i == 0 {
			if rank != 1 {
				return fmt.Errorf("%w: first rank is %d", ErrMismatch, rank)
			}
			continue
		}
		prevTotal := entries[i-1].Get("total").Int()
		prevRank := entries[i-1].Get("rank").Int()
		switch {
		case total > prevTotal:
			return fmt.Errorf("%w: leaderboard not sorted at %d", ErrMismatch, i)
		case total == prevTotal && rank != prevRank:
			return fmt.Errorf("%w: tied totals with ranks %d and %d", ErrMismatch, prevRank, rank)
		case total < prevTotal && rank != prevRank+1:
			return fmt.Errorf("%w: rank gap at %d", ErrMismatch, i)
		}
	}
	return nil
}

func sheetTotal(engine *assignment.Engine, scores map[string]string) int64 {
	var total int64
	for category, raw := range scores {
		if engine.Reserved(assignment.NormalizeCategory(category)) {
			continue
		}
		if v, ok := engine.ParseScore(raw); ok {
			total += v
		}
	}
	return total
}
