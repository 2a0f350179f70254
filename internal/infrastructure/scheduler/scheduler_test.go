package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestScheduler(t *testing.T) {
	Convey("Given a Scheduler", t, func() {
		ctx := context.Background()

		Convey("New function", func() {
			scheduler := New(ctx, nil)

			Convey("It should create a new scheduler successfully", func() {
				So(scheduler, ShouldNotBeNil)
				So(scheduler.cron, ShouldNotBeNil)
			})
		})

		Convey("AddJob function", func() {
			scheduler := New(ctx, nil)

			Convey("When adding a job with a valid cron spec", func() {
				var runs atomic.Int32
				err := scheduler.AddJob("* * * * * *", func(ctx context.Context) error {
					runs.Add(1)
					return nil
				})

				Convey("It should run the job", func() {
					So(err, ShouldBeNil)

					scheduler.Start()
					time.Sleep(2 * time.Second)
					scheduler.Stop()

					So(runs.Load(), ShouldBeGreaterThanOrEqualTo, 1)
				})
			})

			Convey("When adding a job with an invalid cron spec", func() {
				err := scheduler.AddJob("invalid spec", func(ctx context.Context) error { return nil })

				Convey("It should return an error", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "expected exactly 6 fields")
				})
			})
		})

		Convey("Overlapping runs", func() {
			scheduler := New(ctx, nil)

			var running, overlaps, runs atomic.Int32
			err := scheduler.AddJob("* * * * * *", func(ctx context.Context) error {
				if running.Add(1) > 1 {
					overlaps.Add(1)
				}
				runs.Add(1)
				time.Sleep(2500 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			So(err, ShouldBeNil)

			Convey("It should skip ticks while a run is still going", func() {
				scheduler.Start()
				time.Sleep(3500 * time.Millisecond)
				scheduler.Stop()

				So(runs.Load(), ShouldBeGreaterThanOrEqualTo, 1)
				So(overlaps.Load(), ShouldEqual, 0)
			})
		})

		Convey("Cancelled context", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			scheduler := New(cancelled, nil)

			var runs atomic.Int32
			So(scheduler.AddJob("* * * * * *", func(ctx context.Context) error {
				runs.Add(1)
				return nil
			}), ShouldBeNil)

			Convey("It should not start jobs", func() {
				scheduler.Start()
				time.Sleep(1500 * time.Millisecond)
				scheduler.Stop()

				So(runs.Load(), ShouldEqual, 0)
			})
		})
	})
}
