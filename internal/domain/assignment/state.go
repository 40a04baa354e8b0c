package assignment

import (
	"cmp"
	"slices"
)

// state is the mutable working set of a single run.
//
// Invariant: held[c] equals the number of winners entries whose value is c,
// and never exceeds capacity.
type state struct {
	capacity int
	rankings Rankings
	winners  Assignment
	held     map[string]int

	rollDowns int
	swaps     int
}

func newState(capacity int, rankings Rankings) *state {
	return &state{
		capacity: capacity,
		rankings: rankings,
		winners:  Assignment{},
		held:     make(map[string]int),
	}
}

func (s *state) hasRoom(competitor string) bool {
	return s.held[competitor] < s.capacity
}

func (s *state) grant(category, competitor string) {
	s.winners[category] = competitor
	s.held[competitor]++
}

// claim is a (score, category) pair considered for a competitor.
type claim struct {
	category string
	score    int64
}

// claimRawBest grants every competitor the categories it tops outright,
// best score first, until its capacity runs out. Equal scores keep the
// order in which their categories first appeared in the rankings. It
// returns the number of grants made.
func (s *state) claimRawBest(order []string) int {
	wins := make(map[string][]claim)
	for _, category := range order {
		entries := s.rankings[category]
		if len(entries) == 0 {
			continue
		}
		top := entries[0]
		wins[top.CompetitorID] = append(wins[top.CompetitorID], claim{category: category, score: top.Score})
	}

	granted := 0
	for _, competitor := range sortedKeys(wins) {
		list := wins[competitor]
		slices.SortStableFunc(list, func(a, b claim) int {
			return cmp.Compare(b.score, a.score)
		})
		for _, w := range list {
			if _, taken := s.winners[w.category]; taken || !s.hasRoom(competitor) {
				break
			}
			s.grant(w.category, competitor)
			granted++
		}
	}
	return granted
}

// improve runs one roll-down/upgrade pass and reports whether anything changed.
func (s *state) improve(competitors, categories []string) bool {
	changed := false
	for _, competitor := range competitors {
		if s.turn(competitor, categories) {
			changed = true
		}
	}
	return changed
}

// turn lets competitor take its best available category, either into a free
// slot or in place of its weakest current category.
func (s *state) turn(competitor string, categories []string) bool {
	best, ok := s.bestCandidate(competitor, categories)
	if !ok {
		return false
	}

	if s.hasRoom(competitor) {
		if _, taken := s.winners[best.category]; taken {
			return false
		}
		s.grant(best.category, competitor)
		s.rollDowns++
		return true
	}

	weakest, ok := s.weakest(competitor)
	if !ok || best.score <= weakest.score {
		return false
	}
	if owner, taken := s.winners[best.category]; taken && owner != competitor {
		return false
	}
	if owner, taken := s.winners[weakest.category]; taken && owner == competitor {
		delete(s.winners, weakest.category)
	}
	s.winners[best.category] = competitor
	s.swaps++
	return true
}

// bestCandidate scans unassigned categories for ones where competitor is the
// first ranked entry that can still take it. Entries whose competitor is full
// are passed over. The highest score wins; on equal scores the category seen
// first is kept.
func (s *state) bestCandidate(competitor string, categories []string) (claim, bool) {
	var (
		best  claim
		found bool
	)
	for _, category := range categories {
		if _, taken := s.winners[category]; taken {
			continue
		}
		for _, entry := range s.rankings[category] {
			if entry.CompetitorID != competitor && !s.hasRoom(entry.CompetitorID) {
				continue
			}
			if entry.CompetitorID == competitor && (!found || entry.Score > best.score) {
				best = claim{category: category, score: entry.Score}
				found = true
			}
			break
		}
	}
	return best, found
}

// weakest returns the lowest scoring category held by competitor. Equal
// scores resolve to the lexically first category.
func (s *state) weakest(competitor string) (claim, bool) {
	var (
		worst claim
		found bool
	)
	for _, category := range sortedKeys(s.winners) {
		if s.winners[category] != competitor {
			continue
		}
		score, _ := s.rankings.scoreOf(category, competitor)
		if !found || score < worst.score {
			worst = claim{category: category, score: score}
			found = true
		}
	}
	return worst, found
}
