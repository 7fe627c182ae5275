package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// Environment variables read by Load.
const (
	EnvPrefix = "CALGRID_"
	EnvFile   = "CALGRID_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CALGRID_CONFIG is set
//  3. env (prefix CALGRID_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CALGRID_HOUR_HEIGHT -> hour_height. Underscores are kept to match the
	// flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field and reports the first problem found.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.Store != StoreMemory && c.Store != StoreBolt:
		return fmt.Errorf("%w: store must be memory or bolt, got %q", ErrInvalidConfig, c.Store)
	case c.Store == StoreBolt && c.BoltPath == "":
		return fmt.Errorf("%w: bolt_path is required for the bolt store", ErrInvalidConfig)
	case c.HourHeight <= 0:
		return fmt.Errorf("%w: hour_height must be positive", ErrInvalidConfig)
	case c.MinEventHeight < 0:
		return fmt.Errorf("%w: min_event_height must not be negative", ErrInvalidConfig)
	case c.FirstDayOfWeek < 0 || c.FirstDayOfWeek > 6:
		return fmt.Errorf("%w: first_day_of_week must be 0-6", ErrInvalidConfig)
	case c.TimeFormat != "24" && c.TimeFormat != "12":
		return fmt.Errorf("%w: time_format must be 24 or 12, got %q", ErrInvalidConfig, c.TimeFormat)
	case c.MaxExpansion <= 0:
		return fmt.Errorf("%w: max_expansion must be positive", ErrInvalidConfig)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	if len(c.ICSSources) > 0 {
		if _, err := cron.ParseStandard(c.ICSRefresh); err != nil {
			return fmt.Errorf("%w: ics_refresh %q: %w", ErrInvalidConfig, c.ICSRefresh, err)
		}
	}
	seen := make(map[string]struct{}, len(c.ICSSources))
	for i, src := range c.ICSSources {
		if src.ID == "" || src.URL == "" {
			return fmt.Errorf("%w: ics_sources[%d] needs id and url", ErrInvalidConfig, i)
		}
		if _, dup := seen[src.ID]; dup {
			return fmt.Errorf("%w: duplicate ics source id %q", ErrInvalidConfig, src.ID)
		}
		seen[src.ID] = struct{}{}
	}
	return nil
}
