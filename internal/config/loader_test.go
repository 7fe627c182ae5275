package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/calgrid/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.HourHeight, convey.ShouldEqual, 64.0)
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CALGRID_ADDR", ":8080")
			_ = os.Setenv("CALGRID_HOUR_HEIGHT", "48")
			_ = os.Setenv("CALGRID_FIRST_DAY_OF_WEEK", "0")
			_ = os.Setenv("CALGRID_TIME_FORMAT", "12")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.HourHeight, convey.ShouldEqual, 48.0)
				convey.So(cfg.FirstDayOfWeek, convey.ShouldEqual, 0)
				convey.So(cfg.TimeFormat, convey.ShouldEqual, "12")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
store: bolt
bolt_path: /tmp/calgrid-test.db
hour_height: 80
log_format: json
ics_sources:
  - id: team
    url: https://example.com/team.ics
  - id: holidays
    url: https://example.com/holidays.ics
ics_refresh: "0 * * * *"
`)
			_ = os.Setenv("CALGRID_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreBolt)
				convey.So(cfg.BoltPath, convey.ShouldEqual, "/tmp/calgrid-test.db")
				convey.So(cfg.HourHeight, convey.ShouldEqual, 80.0)
				convey.So(cfg.LogFormat, convey.ShouldEqual, config.LogFormatJSON)
				convey.So(cfg.ICSSources, convey.ShouldResemble, []config.ICSSource{
					{ID: "team", URL: "https://example.com/team.ics"},
					{ID: "holidays", URL: "https://example.com/holidays.ics"},
				})
				convey.So(cfg.ICSRefresh, convey.ShouldEqual, "0 * * * *")
				convey.So(cfg.MaxExpansion, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
hour_height: 80
`)
			_ = os.Setenv("CALGRID_CONFIG", tmpFile)
			_ = os.Setenv("CALGRID_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.HourHeight, convey.ShouldEqual, 80.0)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("CALGRID_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CALGRID_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("CALGRID_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CALGRID_HOUR_HEIGHT", "tall")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"CALGRID_CONFIG",
		"CALGRID_ADDR",
		"CALGRID_HOUR_HEIGHT",
		"CALGRID_FIRST_DAY_OF_WEEK",
		"CALGRID_TIME_FORMAT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "calgrid.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
