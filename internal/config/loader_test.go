package config_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/chris-altman/chef-ai-learning-lab/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
				convey.So(cfg.StateBackend, convey.ShouldEqual, "file")
				convey.So(cfg.StatePath, convey.ShouldEqual, "learning_state.json")
				convey.So(cfg.ArchiveDriver, convey.ShouldEqual, "none")
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"*"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CHEF_ADDR", ":8080")
			_ = os.Setenv("CHEF_STATE_BACKEND", "badger")
			_ = os.Setenv("CHEF_STATE_PATH", "/tmp/chef-state")
			_ = os.Setenv("CHEF_PERSIST_WORKERS", "4")
			_ = os.Setenv("CHEF_LOG_FORMAT", "json")
			_ = os.Setenv("CHEF_CORS_ORIGINS", "http://a.test,http://b.test")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StateBackend, convey.ShouldEqual, "badger")
				convey.So(cfg.StatePath, convey.ShouldEqual, "/tmp/chef-state")
				convey.So(cfg.PersistWorkers, convey.ShouldEqual, 4)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
# archive everything into sqlite
addr: ":9090"
archive_driver: sqlite
archive_dsn: "file:archive.db"
dedupe_size: 1000
recent_progression: 5
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CHEF_CONFIG", tmpFile)
			_ = os.Setenv("CHEF_ADDR", ":8081")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.ArchiveDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.ArchiveDSN, convey.ShouldEqual, "file:archive.db")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 1000)
				convey.So(cfg.RecentProgression, convey.ShouldEqual, 5)
				convey.So(cfg.PersistQueueSize, convey.ShouldEqual, 256)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("CHEF_CONFIG", "/nonexistent/chef.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid YAML", func() {
			tmpFile := createTempConfigFile("addr: [unterminated\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CHEF_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CHEF_PERSIST_QUEUE_SIZE", "plenty")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		ctx := context.Background()

		convey.Convey("When an unknown state backend is configured", func() {
			_ = os.Setenv("CHEF_STATE_BACKEND", "redis")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When postgres is chosen without a dsn", func() {
			_ = os.Setenv("CHEF_ARCHIVE_DRIVER", "postgres")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then the dsn is required", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "ArchiveDSN")
			})
		})

		convey.Convey("When persistence is disabled", func() {
			_ = os.Setenv("CHEF_STATE_BACKEND", "none")
			_ = os.Setenv("CHEF_STATE_PATH", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then no state path is needed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.StateBackend, convey.ShouldEqual, "none")
			})
		})

		convey.Convey("When persist workers is zero", func() {
			cfg := config.New(ctx)
			cfg.PersistWorkers = 0

			convey.Convey("Then Validate rejects it", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "CHEF_") {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "chef-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
