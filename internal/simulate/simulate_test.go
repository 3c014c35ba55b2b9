package simulate_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/chris-altman/chef-ai-learning-lab/internal/adapters/http/api"
	service "github.com/chris-altman/chef-ai-learning-lab/internal/app"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/learning"
	"github.com/chris-altman/chef-ai-learning-lab/internal/simulate"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
)

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		a := simulate.NewGenerator(42).Events(50)
		b := simulate.NewGenerator(42).Events(50)

		Convey("Then they produce the same events", func() {
			for i := range a {
				a[i].Timestamp, b[i].Timestamp = time.Time{}, time.Time{}
			}
			So(cmp.Diff(a, b), ShouldBeEmpty)
		})

		Convey("Then every event is valid and ids are unique", func() {
			ids := make(map[string]bool, len(a))
			for _, ev := range a {
				So(learning.Validate(ev.Normalized()), ShouldBeNil)
				So(ids[ev.EventID], ShouldBeFalse)
				ids[ev.EventID] = true
			}
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running learning server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		svc := service.New(service.WithLogger(logger.Nop()))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		srv := httptest.NewServer(api.NewServer(svc, svc).Handler(ctx))
		defer srv.Close()

		Convey("When a simulation with replays runs", func() {
			out := filepath.Join(t.TempDir(), "events", "sim.json")
			report, err := simulate.Run(ctx, simulate.Config{
				BaseURL:    srv.URL,
				NumEvents:  40,
				Workers:    4,
				Replays:    0.25,
				Seed:       7,
				OutputFile: out,
			})

			Convey("Then originals are accepted and replays are duplicates", func() {
				So(err, ShouldBeNil)
				So(report.Stats.Generated, ShouldEqual, 40)
				So(report.Stats.Accepted, ShouldEqual, 40)
				So(report.Stats.Duplicate, ShouldEqual, 10)
				So(report.Stats.Failed, ShouldEqual, 0)
				So(report.Stats.Submitted, ShouldEqual, 50)
				So(report.Learning.Version, ShouldEqual, 40)
				So(report.SkillLevel.Label, ShouldNotBeEmpty)
			})

			Convey("Then the generated events were saved", func() {
				info, err := os.Stat(out)
				So(err, ShouldBeNil)
				So(info.Size(), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When no events are requested", func() {
			_, err := simulate.Run(ctx, simulate.Config{BaseURL: srv.URL})

			Convey("Then the run is refused", func() {
				So(errors.Is(err, simulate.ErrNoEvents), ShouldBeTrue)
			})
		})
	})

	Convey("Given no server", t, func() {
		srv := httptest.NewServer(nil)
		url := srv.URL
		srv.Close()

		Convey("Then the health check fails", func() {
			_, err := simulate.Run(context.Background(), simulate.Config{BaseURL: url, NumEvents: 1, Timeout: time.Second})
			So(err, ShouldNotBeNil)
		})
	})
}
