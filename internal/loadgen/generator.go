package loadgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/skillbest/pkg/logger"
)

const (
	maxScore        = 5_000
	sentinelPercent = 10
	missingPercent  = 5
	commaPercent    = 25
)

// generateSheets builds one sheet per competitor. Scores mix plain digits,
// thousands separators, the no-data sentinel and missing categories, and the
// reserved column carries the sheet's own sum.
func generateSheets(ctx context.Context, config *Config, stats *Stats) ([]Sheet, error) {
	if config.Competitors < 1 {
		return nil, fmt.Errorf("competitors must be positive, got %d", config.Competitors)
	}
	categories := config.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}

	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	logger.Get().Info(ctx, "generating sheets",
		logger.Int("competitors", config.Competitors),
		logger.Int("categories", len(categories)),
		logger.Any("seed", seed))

	ts := time.Now().UTC().Format(time.RFC3339)
	sheets := make([]Sheet, config.Competitors)
	for i := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}
		sheets[i] = generateSheet(rng, categories, config.ReservedCategory, config.NoDataSentinel, ts)
	}

	stats.SheetsGenerated = len(sheets)
	return sheets, nil
}

func generateSheet(rng *rand.Rand, categories []string, reserved, sentinel, ts string) Sheet {
	scores := make(map[string]string, len(categories)+1)
	var sum int64
	for _, category := range categories {
		roll := rng.IntN(100)
		switch {
		case roll < missingPercent:
			continue
		case roll < missingPercent+sentinelPercent:
			scores[category] = sentinel
			continue
		}
		v := rng.Int64N(maxScore)
		sum += v
		scores[category] = formatScore(v, rng.IntN(100) < commaPercent)
	}
	if len(scores) == 0 {
		scores[categories[0]] = sentinel
	}
	if reserved != "" {
		scores[reserved] = formatScore(sum, true)
	}

	return Sheet{
		SubmissionID: uuid.NewString(),
		CompetitorID: uuid.NewString(),
		Scores:       scores,
		TS:           ts,
	}
}

// formatScore renders v, optionally with comma thousands separators.
func formatScore(v int64, commas bool) string {
	s := strconv.FormatInt(v, 10)
	if !commas || len(s) <= 3 {
		return s
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	out = append(out, s[:lead]...)
	for i := lead; i < len(s); i += 3 {
		out = append(out, ',')
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
