package reportlog

import (
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"

	"github.com/semmidev/pusher/internal/util/clock"
)

func TestReportLog(t *testing.T) {
	Convey("Given a ReportLog on an in-memory filesystem", t, func() {
		fs := afero.NewMemMapFs()
		at := time.Date(2026, 10, 18, 5, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
		log := New(fs, "/var/log/pusher/push_to_s3.log", clock.Fixed(at))

		Convey("When the log file does not exist yet", func() {
			err := log.Write("SUCCESS: Pushed to S3: 'db.sql.gz'", "")

			Convey("It should create it with the placeholder and append the record", func() {
				So(err, ShouldBeNil)

				content, err := afero.ReadFile(fs, log.Path())
				So(err, ShouldBeNil)
				So(string(content), ShouldEqual, "0\n[2026-10-18 03:30:00+00:00] SUCCESS: Pushed to S3: 'db.sql.gz'")
			})
		})

		Convey("When a message body is given", func() {
			err := log.Write("ERROR: Pushing to S3: 'db.sql.gz'", "connection reset")

			Convey("It should follow the subject on its own line", func() {
				So(err, ShouldBeNil)

				content, _ := afero.ReadFile(fs, log.Path())
				So(string(content), ShouldEndWith, "] ERROR: Pushing to S3: 'db.sql.gz'\nconnection reset")
			})
		})

		Convey("When the file already has content from earlier runs", func() {
			So(afero.WriteFile(fs, log.Path(), []byte("0\n[old] entry"), 0644), ShouldBeNil)

			So(log.Write("first", ""), ShouldBeNil)
			So(log.Write("second", "detail"), ShouldBeNil)

			Convey("It should never truncate and only append", func() {
				content, _ := afero.ReadFile(fs, log.Path())
				text := string(content)

				So(strings.HasPrefix(text, "0\n[old] entry"), ShouldBeTrue)
				So(strings.Count(text, "\n["), ShouldEqual, 3)
				So(text, ShouldEndWith, "] second\ndetail")
			})
		})

		Convey("When the parent directory is read-only", func() {
			ro := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/logs/push.log", clock.Fixed(at))

			Convey("It should return an error", func() {
				So(ro.Write("subject", ""), ShouldNotBeNil)
			})
		})
	})
}
