package config

import "errors"

var (
	// ErrInvalidConfig wraps Validate failures such as layout bounds or a bad ics_refresh cron spec.
	ErrInvalidConfig = errors.New("invalid calgrid config")
	// ErrLoadConfig wraps koanf failures reading defaults, the YAML file or CALGRID_ env vars.
	ErrLoadConfig = errors.New("load calgrid config")
)
