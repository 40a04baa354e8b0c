package assignment_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/okian/skillbest/internal/domain/assignment"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAssign_Scenarios(t *testing.T) {
	Convey("Given the default engine", t, func() {
		engine := assignment.New()

		Convey("When one competitor has two numeric categories", func() {
			res := engine.Assign(assignment.Scores{
				"alice": {"Attack": "120", "Defence": "80"},
			})

			Convey("Then both categories go to that competitor", func() {
				So(res.Winners, ShouldResemble, assignment.Assignment{
					"attack":  "alice",
					"defence": "alice",
				})
				So(res.Claims, ShouldEqual, 2)
			})
		})

		Convey("When two competitors each top one category", func() {
			res := engine.Assign(assignment.Scores{
				"alice": {"strength": "100", "defence": "10"},
				"bob":   {"strength": "50", "defence": "90"},
			})

			Convey("Then each wins the category they top", func() {
				So(res.Winners, ShouldResemble, assignment.Assignment{
					"strength": "alice",
					"defence":  "bob",
				})
			})
		})

		Convey("When every score is the no-data placeholder", func() {
			res := engine.Assign(assignment.Scores{
				"alice": {"attack": "--", "magic": "--"},
				"bob":   {"attack": "--"},
			})

			Convey("Then the result is empty", func() {
				So(res.Winners, ShouldBeEmpty)
				So(res.Passes, ShouldEqual, 0)
			})
		})

		Convey("When a category is absent from every sheet", func() {
			res := engine.Assign(assignment.Scores{
				"alice": {"attack": "10"},
				"bob":   {"magic": "20"},
			})

			Convey("Then it never appears in the output", func() {
				_, ok := res.Winners["ranged"]
				So(ok, ShouldBeFalse)
				So(len(res.Winners), ShouldEqual, 2)
			})
		})

		Convey("When the input is empty or nil", func() {
			So(engine.Assign(nil).Winners, ShouldBeEmpty)
			So(engine.Assign(assignment.Scores{}).Winners, ShouldBeEmpty)
			So(engine.Assign(assignment.Scores{"alice": nil}).Winners, ShouldBeEmpty)
		})

		Convey("When the reserved overall category has the biggest score", func() {
			res := engine.Assign(assignment.Scores{
				"alice": {" Overall ": "999999", "attack": "1"},
			})

			Convey("Then it is ignored", func() {
				So(res.Winners, ShouldResemble, assignment.Assignment{"attack": "alice"})
			})
		})

		Convey("When a competitor tops more categories than it may win", func() {
			res := engine.Assign(assignment.Scores{
				"alice": {"a": "40", "b": "30", "c": "20", "d": "10"},
				"bob":   {"a": "5", "b": "5", "c": "5", "d": "5"},
			})

			Convey("Then its three best are kept and the rest rolls down", func() {
				So(res.Winners, ShouldResemble, assignment.Assignment{
					"a": "alice",
					"b": "alice",
					"c": "alice",
					"d": "bob",
				})
				So(res.Claims, ShouldEqual, 3)
				So(res.RollDowns, ShouldEqual, 1)
				So(res.Swaps, ShouldEqual, 0)
			})
		})

		Convey("When a free competitor is ranked ahead of another free competitor", func() {
			res := engine.Assign(assignment.Scores{
				"alice": {"a": "90", "b": "80", "c": "70", "x": "60"},
				"bob":   {"x": "40"},
				"carol": {"x": "30"},
			})

			Convey("Then the category rolls down only to the next ranked one", func() {
				So(res.Winners["x"], ShouldEqual, "bob")
				_, carolWon := findCategory(res.Winners, "carol")
				So(carolWon, ShouldBeFalse)
			})
		})

		Convey("When nobody can take a category", func() {
			res := engine.Assign(assignment.Scores{
				"alice": {"a": "40", "b": "30", "c": "20", "d": "10"},
			})

			Convey("Then it stays unassigned", func() {
				_, ok := res.Winners["d"]
				So(ok, ShouldBeFalse)
				So(len(res.Winners), ShouldEqual, 3)
			})
		})

		Convey("When scores use thousands separators and junk text", func() {
			res := engine.Assign(assignment.Scores{
				"alice": {"attack": "1,200", "magic": "n/a"},
				"bob":   {"attack": "1 100", "magic": "7"},
			})

			Convey("Then separators parse and junk is excluded", func() {
				So(res.Winners["attack"], ShouldEqual, "alice")
				So(res.Winners["magic"], ShouldEqual, "bob")
				score, ok := res.ScoreOf("attack")
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 1200)
			})
		})

		Convey("When two competitors tie for a category", func() {
			res := engine.Assign(assignment.Scores{
				"zed":  {"attack": "50"},
				"anna": {"attack": "50"},
			})

			Convey("Then the lexically first competitor takes it", func() {
				So(res.Winners["attack"], ShouldEqual, "anna")
			})
		})
	})
}

func TestAssign_Capacity(t *testing.T) {
	Convey("Given an engine with capacity one", t, func() {
		engine := assignment.New(assignment.WithCapacity(1))

		res := engine.Assign(assignment.Scores{
			"alice": {"a": "10", "b": "9"},
			"bob":   {"a": "8", "b": "7"},
		})

		Convey("Then each competitor wins at most one category", func() {
			So(res.Winners, ShouldResemble, assignment.Assignment{"a": "alice", "b": "bob"})
		})
	})

	Convey("Given a non-positive capacity option", t, func() {
		engine := assignment.New(assignment.WithCapacity(0))

		Convey("Then the default capacity is kept", func() {
			So(engine.Capacity(), ShouldEqual, assignment.DefaultCapacity)
		})
	})

	Convey("Given a custom sentinel and reserved category", t, func() {
		engine := assignment.New(
			assignment.WithNoDataSentinel("N/A"),
			assignment.WithReservedCategory("Total"),
		)
		res := engine.Assign(assignment.Scores{
			"alice": {"total": "100", "overall": "50", "attack": "N/A"},
		})

		Convey("Then both are honored", func() {
			So(res.Winners, ShouldResemble, assignment.Assignment{"overall": "alice"})
		})
	})
}

func TestAssign_RawBestTies(t *testing.T) {
	Convey("Given a competitor topping several categories with equal scores", t, func() {
		engine := assignment.New()
		res := engine.Assign(assignment.Scores{
			"p0": {"c0": "1", "c1": "6", "c4": "7", "c5": "5"},
			"p1": {"c0": "1", "c1": "8", "c2": "7", "c3": "7", "c5": "7"},
		})

		Convey("Then the tied wins are claimed in first-appearance order, not by name", func() {
			So(res.Winners, ShouldResemble, assignment.Assignment{
				"c0": "p0",
				"c4": "p0",
				"c1": "p1",
				"c5": "p1",
				"c2": "p1",
			})
			_, assigned := res.Winners["c3"]
			So(assigned, ShouldBeFalse)
		})
	})
}

func TestEngine_Normalization(t *testing.T) {
	Convey("Given a sentinel configured with surrounding spaces", t, func() {
		engine := assignment.New(assignment.WithNoDataSentinel(" N/A "))

		Convey("Then padded and bare placeholders both mean no score", func() {
			_, ok := engine.ParseScore("N/A")
			So(ok, ShouldBeFalse)
			_, ok = engine.ParseScore("  N/A")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given the reserved category spelled differently", t, func() {
		engine := assignment.New()

		Convey("Then raw spellings are recognized", func() {
			So(engine.Reserved("overall"), ShouldBeTrue)
			So(engine.Reserved("Overall"), ShouldBeTrue)
			So(engine.Reserved(" OVERALL "), ShouldBeTrue)
			So(engine.Reserved("attack"), ShouldBeFalse)
		})

		Convey("And the column never takes part in assignment", func() {
			res := engine.Assign(assignment.Scores{"alice": {" Overall ": "999", "attack": "1"}})
			So(res.Winners, ShouldResemble, assignment.Assignment{"attack": "alice"})
		})
	})
}

func TestAssign_Properties(t *testing.T) {
	Convey("Given random score snapshots", t, func() {
		rng := rand.New(rand.NewSource(7))
		engine := assignment.New()

		for round := 0; round < 200; round++ {
			scores := randomScores(rng)
			res := engine.Assign(scores)

			held := map[string]int{}
			for category, competitor := range res.Winners {
				held[competitor]++

				raw, ok := lookupRaw(scores[competitor], category)
				So(ok, ShouldBeTrue)
				_, numeric := engine.ParseScore(raw)
				So(numeric, ShouldBeTrue)
			}
			for _, n := range held {
				So(n, ShouldBeLessThanOrEqualTo, assignment.DefaultCapacity)
			}
			So(res.Passes, ShouldBeLessThanOrEqualTo, len(scores)+5)

			// Same contents, different construction order.
			So(engine.Assign(rebuild(scores)).Winners, ShouldResemble, res.Winners)
		}
	})

	Convey("Given the winners-only reduction of a result", t, func() {
		scores := assignment.Scores{
			"alice": {"a": "40", "b": "30", "c": "20", "d": "10"},
			"bob":   {"a": "5", "b": "35", "d": "9"},
			"carol": {"c": "25", "e": "1"},
		}
		engine := assignment.New()
		res := engine.Assign(scores)

		reduced := assignment.Scores{}
		for category, competitor := range res.Winners {
			score, _ := res.ScoreOf(category)
			if reduced[competitor] == nil {
				reduced[competitor] = map[string]string{}
			}
			reduced[competitor][category] = fmt.Sprint(score)
		}

		Convey("Then re-running keeps every winner", func() {
			So(engine.Assign(reduced).Winners, ShouldResemble, res.Winners)
		})
	})
}

func TestParseScore(t *testing.T) {
	Convey("Given the default engine", t, func() {
		engine := assignment.New()

		cases := []struct {
			raw  string
			want int64
			ok   bool
		}{
			{"0", 0, true},
			{"1,234,567", 1234567, true},
			{" 12 345 ", 12345, true},
			{"--", 0, false},
			{"", 0, false},
			{"abc", 0, false},
			{"-5", 0, false},
			{"1.5", 0, false},
			{",", 0, false},
			{"99999999999999999999", 0, false},
		}
		for _, c := range cases {
			got, ok := engine.ParseScore(c.raw)
			So(ok, ShouldEqual, c.ok)
			So(got, ShouldEqual, c.want)
		}
	})
}

func TestBuildRankings(t *testing.T) {
	Convey("Given sheets with mixed values", t, func() {
		engine := assignment.New()
		rankings := engine.BuildRankings(assignment.Scores{
			"bob":   {"Attack": "10", "Magic": "--"},
			"alice": {"attack ": "30", "overall": "100"},
			"carol": {"ATTACK": "10"},
		})

		Convey("Then categories are normalized and sorted by score", func() {
			So(rankings, ShouldContainKey, "attack")
			So(rankings, ShouldNotContainKey, "magic")
			So(rankings, ShouldNotContainKey, "overall")
			So(rankings["attack"], ShouldResemble, []assignment.RankEntry{
				{CompetitorID: "alice", Score: 30},
				{CompetitorID: "bob", Score: 10},
				{CompetitorID: "carol", Score: 10},
			})
			top, ok := rankings.Top("attack")
			So(ok, ShouldBeTrue)
			So(top.CompetitorID, ShouldEqual, "alice")
		})
	})
}

func findCategory(winners assignment.Assignment, competitor string) (string, bool) {
	for category, c := range winners {
		if c == competitor {
			return category, true
		}
	}
	return "", false
}

func lookupRaw(sheet map[string]string, category string) (string, bool) {
	for raw, v := range sheet {
		if assignment.NormalizeCategory(raw) == category {
			if _, ok := assignment.New().ParseScore(v); ok {
				return v, true
			}
		}
	}
	return "", false
}

var randomCategories = []string{"attack", "defence", "strength", "magic", "ranged", "prayer", "mining", "fishing"}

func randomScores(rng *rand.Rand) assignment.Scores {
	scores := assignment.Scores{}
	n := 1 + rng.Intn(6)
	for i := 0; i < n; i++ {
		sheet := map[string]string{}
		for _, category := range randomCategories {
			switch rng.Intn(6) {
			case 0:
				continue
			case 1:
				sheet[category] = assignment.DefaultNoDataSentinel
			default:
				sheet[category] = fmt.Sprint(rng.Intn(50))
			}
		}
		scores[fmt.Sprintf("competitor-%d", i)] = sheet
	}
	return scores
}

func rebuild(scores assignment.Scores) assignment.Scores {
	out := assignment.Scores{}
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	for i := len(ids) - 1; i >= 0; i-- {
		sheet := map[string]string{}
		for k, v := range scores[ids[i]] {
			sheet[k] = v
		}
		out[ids[i]] = sheet
	}
	return out
}
