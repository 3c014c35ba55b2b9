package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/chris-altman/chef-ai-learning-lab/internal/app"
	"github.com/chris-altman/chef-ai-learning-lab/internal/config"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/learning"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func feedback(id string, rating float64, ingredients ...string) model.FeedbackEvent {
	return model.FeedbackEvent{
		EventID:     id,
		RecipeID:    "1",
		Ingredients: ingredients,
		Techniques:  []string{"whisking", "scrambling"},
		Steps:       []model.Step{{Instruction: "Whisk the eggs", Time: "2-3 minutes"}},
		Rating:      model.Float(rating),
	}
}

// recordingLogger keeps every message so tests can assert on diagnostics.
type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

func newRecordingLogger() recordingLogger {
	return recordingLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (r recordingLogger) add(level, msg string, fields []logger.Field) {
	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, logEntry{level: level, msg: msg, fields: m})
}

func (r recordingLogger) Info(_ context.Context, msg string, f ...logger.Field) { r.add("info", msg, f) }
func (r recordingLogger) Error(_ context.Context, msg string, f ...logger.Field) {
	r.add("error", msg, f)
}
func (r recordingLogger) Debug(_ context.Context, msg string, f ...logger.Field) {
	r.add("debug", msg, f)
}
func (r recordingLogger) Warn(_ context.Context, msg string, f ...logger.Field) { r.add("warn", msg, f) }
func (r recordingLogger) Fatal(_ context.Context, msg string, f ...logger.Field) {
	r.add("fatal", msg, f)
}
func (r recordingLogger) Named(string) logger.Logger { return r }

// find returns the first entry with the message at level.
func (r recordingLogger) find(level, msg string) (logEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range *r.entries {
		if e.level == level && e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func startService(ctx context.Context, opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it reports sensible defaults before starting", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["stateBackend"], ShouldEqual, "none")
			So(stats["version"], ShouldEqual, 0)
		})

		Convey("Then learning before Start is refused", func() {
			_, err := svc.Learn(context.Background(), feedback("fb-1", 1, "eggs"))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("Then queries already answer from the default state", func() {
			So(svc.SkillLevel(context.Background(), 0).Label, ShouldNotBeEmpty)
			So(svc.Experiments(context.Background()), ShouldBeEmpty)
		})
	})

	Convey("Given a service built from config defaults", t, func() {
		cfg := config.New(context.Background())
		cfg.StateBackend = "none"
		svc := service.New(service.FromConfig(cfg)...)

		Convey("Then the config values are applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, cfg.PersistWorkers)
			So(stats["queueCapacity"], ShouldEqual, cfg.PersistQueueSize)
		})
	})
}

func TestService_Learn(t *testing.T) {
	Convey("Given a started service without persistence", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := startService(ctx)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a feedback event is learned", func() {
			res, err := svc.Learn(ctx, feedback("fb-1", 1, "eggs", "onions"))

			Convey("Then the engine state advances", func() {
				So(err, ShouldBeNil)
				So(res.EventID, ShouldEqual, "fb-1")
				So(res.Version, ShouldEqual, 1)
				So(svc.LearningStats(ctx).KnownIngredients, ShouldEqual, 2)
			})

			Convey("And replaying it is reported as a duplicate", func() {
				_, err := svc.Learn(ctx, feedback("fb-1", 1, "eggs", "onions"))
				So(errors.Is(err, learning.ErrDuplicate), ShouldBeTrue)
				So(svc.LearningStats(ctx).Version, ShouldEqual, 1)
			})
		})

		Convey("When events carry no id", func() {
			_, err1 := svc.Learn(ctx, feedback("", 1, "bread"))
			_, err2 := svc.Learn(ctx, feedback("", 1, "bread"))

			Convey("Then each is applied", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(svc.LearningStats(ctx).Version, ShouldEqual, 2)
			})
		})

		Convey("When an invalid event is rejected", func() {
			bad := feedback("fb-2", 1, "eggs")
			bad.Rating = nil
			_, err := svc.Learn(ctx, bad)

			Convey("Then its id can be submitted again once fixed", func() {
				So(errors.Is(err, learning.ErrValidation), ShouldBeTrue)
				_, err := svc.Learn(ctx, feedback("fb-2", 1, "eggs"))
				So(err, ShouldBeNil)
			})
		})

		Convey("When a recipe is generated", func() {
			_, err := svc.Learn(ctx, feedback("fb-3", 1, "eggs", "onions"))
			So(err, ShouldBeNil)
			rec, err := svc.GenerateRecipe(ctx, []string{"eggs", "onions"})

			Convey("Then it carries the learned inputs", func() {
				So(err, ShouldBeNil)
				So(rec.Learned.CompatibilityScores, ShouldHaveLength, 1)
				So(rec.ID, ShouldEqual, 2)
			})
		})

		Convey("When pair queries are made", func() {
			_, err := svc.Learn(ctx, feedback("fb-4", 1, "eggs", "onions"))
			So(err, ShouldBeNil)

			Convey("Then known pairs resolve and unknown ones do not", func() {
				p, err := svc.Compatibility(ctx, "onions", "eggs")
				So(err, ShouldBeNil)
				So(p.Confidence, ShouldBeGreaterThan, 0)
				row, err := svc.IngredientCompatibility(ctx, "eggs")
				So(err, ShouldBeNil)
				So(row, ShouldHaveLength, 1)
				_, err = svc.IngredientCompatibility(ctx, "saffron")
				So(errors.Is(err, learning.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service with a recording logger", t, func() {
		ctx := context.Background()
		rec := newRecordingLogger()
		svc := startService(ctx, service.WithLogger(rec))
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When an event without a rating is rejected", func() {
			bad := feedback("fb-9", 1, "eggs")
			bad.Rating = nil
			_, err := svc.Learn(ctx, bad)
			So(errors.Is(err, learning.ErrValidation), ShouldBeTrue)

			Convey("Then the rejection is logged with its id and cause", func() {
				entry, ok := rec.find("warn", "feedback event rejected")
				So(ok, ShouldBeTrue)
				So(entry.fields["eventID"], ShouldEqual, "fb-9")
				cause, isErr := entry.fields["error"].(error)
				So(isErr, ShouldBeTrue)
				So(errors.Is(cause, learning.ErrValidation), ShouldBeTrue)
			})
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := startService(ctx)

		Convey("When starting twice and stopping twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a snapshot file that is not valid JSON", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "state.json")
		So(os.WriteFile(path, []byte("{not json"), 0o644), ShouldBeNil)

		Convey("When the service starts", func() {
			svc := startService(ctx, service.WithStateStore("file", path))
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then it falls back to the default state", func() {
				So(svc.LearningStats(ctx).Version, ShouldEqual, 0)
			})
		})
	})

	Convey("Given an unknown archive driver", t, func() {
		svc := service.New(service.WithArchive("mysql", "root@/chef"))

		Convey("Then Start fails", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, service.ErrStart), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}
