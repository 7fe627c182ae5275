package service

import (
	"net/http"
	"time"

	"github.com/okian/calgrid/internal/adapters/ics"
	"github.com/okian/calgrid/internal/adapters/repository"
	"github.com/okian/calgrid/internal/domain/layout"
	"github.com/okian/calgrid/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore uses an already opened store. The caller keeps ownership and
// closes it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithBoltPath makes Start open a bbolt store at path. Ignored when WithStore
// is also given.
func WithBoltPath(path string) Option {
	return func(s *Service) {
		s.boltPath = path
	}
}

// WithEngineOptions configures the layout engine.
func WithEngineOptions(opts ...layout.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithICSSources sets the feeds imported by SyncICS.
func WithICSSources(sources []ics.Source) Option {
	return func(s *Service) {
		s.sources = sources
	}
}

// WithICSRefresh sets the cron schedule for background ICS sync.
func WithICSRefresh(spec string) Option {
	return func(s *Service) {
		if spec != "" {
			s.refresh = spec
		}
	}
}

// WithMaxExpansion caps occurrences generated per repeating event.
func WithMaxExpansion(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxExpansion = n
		}
	}
}

// WithHTTPClient sets the client used to download ICS feeds.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		s.httpClient = c
	}
}

// WithLocation sets the zone ICS timestamps are shown in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}
