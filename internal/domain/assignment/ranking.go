package assignment

import (
	"slices"
	"sort"
	"strconv"
	"strings"
)

// NormalizeCategory case-folds and trims a raw category name.
func NormalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParseScore parses a raw score such as "1,234 567". It reports false for the
// no-data sentinel and for anything that is not a non-negative integer.
func (e *Engine) ParseScore(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == e.sentinel {
		return 0, false
	}
	digits := strings.NewReplacer(" ", "", ",", "").Replace(raw)
	if digits == "" {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// overflow
		return 0, false
	}
	return v, true
}

// Reserved reports whether category, raw or normalized, is the reserved
// aggregate column.
func (e *Engine) Reserved(category string) bool {
	return NormalizeCategory(category) == e.reserved
}

// BuildRankings collects every parseable score per normalized category and
// orders each list by score descending. Ties keep collection order, which is
// competitor ID ascending and then raw category name ascending.
func (e *Engine) BuildRankings(scores Scores) Rankings {
	rankings, _ := e.buildRankings(scores)
	return rankings
}

// buildRankings also returns the categories in the order they received
// their first entry.
func (e *Engine) buildRankings(scores Scores) (Rankings, []string) {
	rankings := Rankings{}
	var order []string
	for _, competitor := range sortedKeys(scores) {
		sheet := scores[competitor]
		if len(sheet) == 0 {
			continue
		}
		for _, rawCategory := range sortedKeys(sheet) {
			category := NormalizeCategory(rawCategory)
			if e.Reserved(category) {
				continue
			}
			score, ok := e.ParseScore(sheet[rawCategory])
			if !ok {
				continue
			}
			if _, ok := rankings[category]; !ok {
				order = append(order, category)
			}
			rankings[category] = append(rankings[category], RankEntry{CompetitorID: competitor, Score: score})
		}
	}

	for _, entries := range rankings {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Score > entries[j].Score
		})
	}
	return rankings, order
}

// categories returns every normalized category named in scores, reserved
// one excluded, in ascending order. Categories without any parseable score
// are included; the improvement pass skips them.
func (e *Engine) categories(scores Scores) []string {
	seen := make(map[string]struct{})
	for _, sheet := range scores {
		for rawCategory := range sheet {
			category := NormalizeCategory(rawCategory)
			if e.Reserved(category) {
				continue
			}
			seen[category] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// scoreOf returns the first score recorded for competitor in category.
func (r Rankings) scoreOf(category, competitor string) (int64, bool) {
	for _, entry := range r[category] {
		if entry.CompetitorID == competitor {
			return entry.Score, true
		}
	}
	return 0, false
}

// Top returns the best entry of category.
func (r Rankings) Top(category string) (RankEntry, bool) {
	entries := r[category]
	if len(entries) == 0 {
		return RankEntry{}, false
	}
	return entries[0], true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
