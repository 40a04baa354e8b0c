package service_test

import (
	"context"
	"errors"
	"testing"

	service "github.com/okian/skillbest/internal/app"
	"github.com/okian/skillbest/internal/domain/assignment"
	"github.com/okian/skillbest/internal/domain/model"
	"github.com/okian/skillbest/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it reports defaults without being started", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["capacity"], ShouldEqual, assignment.DefaultCapacity)
			So(svc.Size(), ShouldEqual, 0)
		})

		Convey("Then reads fail until it is started", func() {
			_, err := svc.TopN(context.Background(), 3)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Assignments(context.Background())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(3),
			service.WithQueueSize(50),
			service.WithDedupeSize(10),
			service.WithEngineOptions(assignment.WithCapacity(1)),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 3)
			So(stats["queueSize"], ShouldEqual, 50)
			So(stats["dedupeSize"], ShouldEqual, 10)
			So(stats["capacity"], ShouldEqual, 1)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When starting it again", func() {
			err := svc.Start(context.Background())

			Convey("Then it is a no-op", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
			})
		})

		Convey("When stopping the service", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then it is marked as stopped and rejects sheets", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Enqueue(context.Background(), sheet("sub-1", "alice", nil)), ShouldBeFalse)
			})
		})

		Reset(svc.Stop)
	})
}

func TestService_SeenAndRecord(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		ctx := context.Background()

		Convey("Then a submission is new once and duplicate afterwards", func() {
			So(svc.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			So(svc.SeenAndRecord(ctx, "sub-1"), ShouldBeTrue)
			So(svc.Size(), ShouldEqual, 1)
		})

		Convey("Then an unrecorded submission can be retried", func() {
			svc.SeenAndRecord(ctx, "sub-2")
			svc.Unrecord(ctx, "sub-2")
			So(svc.SeenAndRecord(ctx, "sub-2"), ShouldBeFalse)
		})
	})
}

func TestService_DedupeBeforeStart(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("Then dedupe calls do not panic and remember nothing", func() {
			So(func() { svc.SeenAndRecord(ctx, "sub-1") }, ShouldNotPanic)
			So(svc.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			So(func() { svc.Unrecord(ctx, "sub-1") }, ShouldNotPanic)
			So(svc.Size(), ShouldEqual, 0)
		})

		Convey("And the sheet itself is refused", func() {
			So(svc.Enqueue(ctx, model.Sheet{SubmissionID: "sub-1", CompetitorID: "alice", Scores: map[string]string{"a": "1"}}), ShouldBeFalse)
		})
	})
}

func TestService_Compute(t *testing.T) {
	Convey("Given a caller-supplied snapshot", t, func() {
		svc := service.New(service.WithCutoffCompetitor("alice"))
		scores := assignment.Scores{
			"alice": {"a": "40", "b": "30", "c": "20", "d": "10", "overall": "100"},
			"bob":   {"a": "5", "b": "5", "c": "5", "d": "5", "e": "--"},
		}

		Convey("When computing without starting the service", func() {
			report, err := svc.Compute(context.Background(), scores)

			Convey("Then the overflow category rolls down to the runner-up", func() {
				So(err, ShouldBeNil)
				So(report.Winners, ShouldResemble, []types.Winner{
					{Category: "a", CompetitorID: "alice", Score: 40},
					{Category: "b", CompetitorID: "alice", Score: 30},
					{Category: "c", CompetitorID: "alice", Score: 20},
					{Category: "d", CompetitorID: "bob", Score: 5},
				})
				So(report.Competitors, ShouldEqual, 2)
				So(report.Excluded, ShouldEqual, 0)
				So(report.Claims, ShouldEqual, 3)
				So(report.RollDowns, ShouldEqual, 1)
				So(report.Capacity, ShouldEqual, 3)
				So(report.Unassigned, ShouldBeEmpty)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := svc.Compute(ctx, scores)

			Convey("Then the run is refused", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When the snapshot is empty", func() {
			report, err := svc.Compute(context.Background(), nil)

			Convey("Then nothing is assigned", func() {
				So(err, ShouldBeNil)
				So(report.Winners, ShouldBeEmpty)
				So(report.Passes, ShouldEqual, 0)
			})
		})
	})
}

func TestEligible(t *testing.T) {
	Convey("Given a roster", t, func() {
		scores := assignment.Scores{
			"Alice": {"a": "1"},
			"bob":   {"a": "2"},
			"carol": {"a": "3"},
			"dave":  {"a": "4"},
		}

		Convey("When the cutoff matches case-insensitively", func() {
			got := service.Eligible(scores, "CAROL")

			Convey("Then only competitors sorted before it remain", func() {
				So(got, ShouldHaveLength, 2)
				So(got, ShouldContainKey, "Alice")
				So(got, ShouldContainKey, "bob")
			})
		})

		Convey("When the cutoff is the first competitor", func() {
			Convey("Then nobody is eligible", func() {
				So(service.Eligible(scores, "alice"), ShouldBeEmpty)
			})
		})

		Convey("When the cutoff is unknown or empty", func() {
			Convey("Then everyone is eligible", func() {
				So(service.Eligible(scores, "zed"), ShouldHaveLength, 4)
				So(service.Eligible(scores, ""), ShouldHaveLength, 4)
			})
		})
	})
}
