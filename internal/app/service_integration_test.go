package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	service "github.com/okian/skillbest/internal/app"
	"github.com/okian/skillbest/internal/adapters/repository"
	"github.com/okian/skillbest/internal/domain/assignment"
	"github.com/okian/skillbest/internal/domain/model"
	"github.com/okian/skillbest/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func sheet(id, competitor string, scores map[string]string) model.Sheet {
	return model.Sheet{SubmissionID: id, CompetitorID: competitor, Scores: scores, TS: t0}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func waitForCount(svc *service.Service, n int) bool {
	return waitFor(func() bool {
		stats := svc.GetStats()
		return stats["totalCompetitors"] == n && stats["queueLength"] == 0
	})
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(100),
			service.WithDedupeSize(100),
			service.WithCutoffCompetitor("ZZ-Cutoff"),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() {
			svc.Stop()
			cancel()
		})

		sheets := []model.Sheet{
			sheet("s1", "alice", map[string]string{"mining": "1,000", "fishing": "900", "cooking": "800", "agility": "700", "overall": "9999"}),
			sheet("s2", "bob", map[string]string{"mining": "500", "fishing": "950", "cooking": "--", "agility": "100"}),
			sheet("s3", "carol", map[string]string{"mining": "400", "agility": "650"}),
		}
		for _, s := range sheets {
			So(svc.Enqueue(ctx, s), ShouldBeTrue)
		}
		So(waitForCount(svc, 3), ShouldBeTrue)

		Convey("When reading the totals leaderboard", func() {
			top, err := svc.TopN(ctx, 10)

			Convey("Then competitors are ordered by total without the reserved column", func() {
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)
				So(top[0].CompetitorID, ShouldEqual, "alice")
				So(top[0].Total, ShouldEqual, 3400)
				So(top[1].CompetitorID, ShouldEqual, "bob")
				So(top[1].Total, ShouldEqual, 1550)
				So(top[2].Rank, ShouldEqual, 3)
			})
		})

		Convey("When computing assignments from the store", func() {
			report, err := svc.Assignments(ctx)

			Convey("Then every category is awarded within capacity", func() {
				So(err, ShouldBeNil)
				winners := map[string]string{}
				for _, w := range report.Winners {
					winners[w.Category] = w.CompetitorID
				}
				So(winners, ShouldResemble, map[string]string{
					"fishing": "bob",
					"mining":  "alice",
					"cooking": "alice",
					"agility": "alice",
				})
				So(report.Competitors, ShouldEqual, 3)
				So(report.Excluded, ShouldEqual, 0)
			})
		})

		Convey("When a cutoff competitor exists", func() {
			So(svc.Enqueue(ctx, sheet("s4", "zz-cutoff", map[string]string{"mining": "99999"})), ShouldBeTrue)
			So(waitForCount(svc, 4), ShouldBeTrue)
			report, err := svc.Assignments(ctx)

			Convey("Then it and everyone sorted after it are excluded", func() {
				So(err, ShouldBeNil)
				So(report.Excluded, ShouldEqual, 1)
				for _, w := range report.Winners {
					So(w.CompetitorID, ShouldNotEqual, "zz-cutoff")
				}
			})
		})

		Convey("When viewing a single competitor", func() {
			c, err := svc.Competitor(ctx, "bob")

			Convey("Then the sheet is parsed and the wins are listed", func() {
				So(err, ShouldBeNil)
				So(c.Rank, ShouldEqual, 2)
				So(c.Total, ShouldEqual, 1550)
				So(c.Categories, ShouldHaveLength, 4)
				So(c.Categories[1].Category, ShouldEqual, "cooking")
				So(c.Categories[1].HasScore, ShouldBeFalse)
				So(c.Won, ShouldResemble, []string{"fishing"})
			})

			Convey("Then an unknown competitor is not found", func() {
				_, err := svc.Competitor(ctx, "nobody")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a sheet spells the reserved column differently", func() {
			So(svc.Enqueue(ctx, sheet("s6", "dora", map[string]string{" Overall ": "88888", "mining": "300"})), ShouldBeTrue)
			So(waitForCount(svc, 4), ShouldBeTrue)
			c, err := svc.Competitor(ctx, "dora")

			Convey("Then it is neither totalled nor listed", func() {
				So(err, ShouldBeNil)
				So(c.Total, ShouldEqual, 300)
				So(c.Categories, ShouldHaveLength, 1)
				So(c.Categories[0].Category, ShouldEqual, "mining")
			})
		})

		Convey("When a newer sheet replaces an older one", func() {
			newer := sheet("s5", "carol", map[string]string{"fishing": "5000"})
			newer.TS = t0.Add(time.Hour)
			So(svc.Enqueue(ctx, newer), ShouldBeTrue)

			Convey("Then the latest sheet decides", func() {
				So(waitFor(func() bool {
					e, err := svc.Rank(ctx, "carol")
					return err == nil && e.Total == 5000
				}), ShouldBeTrue)

				report, err := svc.Assignments(ctx)
				So(err, ShouldBeNil)
				winners := map[string]string{}
				for _, w := range report.Winners {
					winners[w.Category] = w.CompetitorID
				}
				So(winners["fishing"], ShouldEqual, "carol")
				So(winners["agility"], ShouldEqual, "alice")
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a running service under concurrent load", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(10_000),
			service.WithEngineOptions(assignment.WithCapacity(2)),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		const competitors = 40
		var wg sync.WaitGroup
		for i := 0; i < competitors; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s := sheet(fmt.Sprintf("sub-%d", i), fmt.Sprintf("c%02d", i), map[string]string{
					fmt.Sprintf("cat-%d", i%7): fmt.Sprint(i * 10),
					"shared":                   fmt.Sprint(i),
				})
				for !svc.Enqueue(ctx, s) {
					time.Sleep(time.Millisecond)
				}
			}(i)
		}
		wg.Wait()
		So(waitForCount(svc, competitors), ShouldBeTrue)

		Convey("When assignments are computed concurrently", func() {
			var mu sync.Mutex
			var reports [][]string
			var rg sync.WaitGroup
			for i := 0; i < 8; i++ {
				rg.Add(1)
				go func() {
					defer rg.Done()
					report, err := svc.Assignments(ctx)
					if err != nil {
						return
					}
					var flat []string
					for _, w := range report.Winners {
						flat = append(flat, w.Category+"="+w.CompetitorID)
					}
					mu.Lock()
					reports = append(reports, flat)
					mu.Unlock()
				}()
			}
			rg.Wait()

			Convey("Then every run over the same data agrees", func() {
				So(reports, ShouldHaveLength, 8)
				for _, r := range reports[1:] {
					So(r, ShouldResemble, reports[0])
				}
				So(reports[0], ShouldContain, "shared=c39")
			})
		})
	})
}
