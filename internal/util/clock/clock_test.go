package clock

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClock(t *testing.T) {
	Convey("Given the clocks", t, func() {
		at := time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)

		So(Fixed(at).Now(), ShouldEqual, at)
		So(Func(func() time.Time { return at }).Now(), ShouldEqual, at)
		So(System().Now(), ShouldHappenWithin, time.Minute, time.Now())
	})
}
