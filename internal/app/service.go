// Package service wires the event store, recurrence expansion, the layout
// engine and ICS import behind the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/okian/calgrid/internal/adapters/ics"
	"github.com/okian/calgrid/internal/adapters/repository"
	"github.com/okian/calgrid/internal/domain/layout"
	"github.com/okian/calgrid/internal/domain/model"
	"github.com/okian/calgrid/internal/domain/recurrence"
	"github.com/okian/calgrid/internal/domain/view"
	"github.com/okian/calgrid/pkg/logger"
	"github.com/okian/calgrid/pkg/metrics"
)

const (
	defaultRefresh     = "*/15 * * * *"
	defaultMaxExpand   = 1000
	maxConcurrentFeeds = 4
)

// SourceResult reports the outcome of importing one ICS source.
type SourceResult struct {
	Source    string `json:"source"`
	Imported  int    `json:"imported"`
	Rejected  int    `json:"rejected"`
	Dropped   int    `json:"dropped"`
	Removed   int    `json:"removed"`
	FromCache bool   `json:"fromCache"`
	Error     string `json:"error,omitempty"`
}

// SyncReport is the outcome of one SyncICS run.
type SyncReport struct {
	StartedAt time.Time      `json:"startedAt"`
	Duration  string         `json:"duration"`
	Sources   []SourceResult `json:"sources"`
}

// Service implements the API dependencies for the calendar.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	engine   *layout.Engine
	expander *recurrence.Expander
	fetcher  *ics.Fetcher
	cron     *cron.Cron

	// Configuration
	boltPath     string
	ownsStore    bool
	engineOpts   []layout.Option
	sources      []ics.Source
	refresh      string
	maxExpansion int
	httpClient   *http.Client
	location     *time.Location

	// State
	started  bool
	syncMu   sync.Mutex
	lastSync *SyncReport

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		refresh:      defaultRefresh,
		maxExpansion: defaultMaxExpand,
		location:     time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = layout.New(s.engineOpts...)
	s.expander = recurrence.New(recurrence.WithMaxOccurrences(s.maxExpansion))
	s.fetcher = ics.NewFetcher(s.httpClient)
	return s
}

// Start opens the store and schedules background ICS sync.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if err := s.engine.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting calendar service...")

	if s.store == nil {
		if s.boltPath != "" {
			st, err := repository.OpenBoltStore(s.boltPath)
			if err != nil {
				return err
			}
			s.store = st
			s.logger.Info(ctx, "using bolt store", logger.String("path", s.boltPath))
		} else {
			s.store = repository.NewMemoryStore()
			s.logger.Info(ctx, "using memory store")
		}
		s.ownsStore = true
	}

	if len(s.sources) > 0 {
		c := cron.New()
		if _, err := c.AddFunc(s.refresh, s.scheduledSync); err != nil {
			s.closeStore()
			return fmt.Errorf("schedule ics sync %q: %w", s.refresh, err)
		}
		c.Start()
		s.cron = c
	}

	s.started = true
	s.logger.Info(ctx, "calendar service started",
		logger.Int("events", s.store.Count(ctx)),
		logger.Int("icsSources", len(s.sources)),
		logger.String("icsRefresh", s.refresh),
	)
	return nil
}

// Stop halts background sync and closes the store if the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.cron = nil
	s.started = false
	s.mu.Unlock()

	s.logger.Info(context.Background(), "stopping calendar service...")

	// Wait outside the lock: a running sync still needs it to finish.
	if c != nil {
		<-c.Stop().Done()
	}

	s.mu.Lock()
	s.closeStore()
	s.mu.Unlock()

	s.logger.Info(context.Background(), "calendar service stopped")
}

func (s *Service) closeStore() {
	if !s.ownsStore || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "close store failed", logger.Error(err))
	}
	s.store = nil
	s.ownsStore = false
}

func (s *Service) activeStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Layout arranges the stored events, with repeating events expanded, on
// the window.
func (s *Service) Layout(ctx context.Context, w view.Window) (layout.Result, error) {
	store, err := s.activeStore()
	if err != nil {
		return layout.Result{}, err
	}
	begin := time.Now()

	grid, err := s.engine.Grid(w)
	if err != nil {
		metrics.RecordLayoutError()
		return layout.Result{}, err
	}
	events, err := store.InRange(ctx, grid.Start, grid.End)
	if err != nil {
		return layout.Result{}, err
	}

	expanded := s.expander.Expand(events, grid.Start, grid.End)
	occurrences := len(expanded.Events) - countNonRepeating(events)
	metrics.RecordExpansion(max(occurrences, 0), len(expanded.Truncated))
	for _, id := range expanded.Truncated {
		s.logger.Warn(ctx, "repeating event hit the occurrence cap",
			logger.String("id", id), logger.Int("cap", s.maxExpansion))
	}

	res, err := s.engine.Layout(expanded.Events, w)
	if err != nil {
		metrics.RecordLayoutError()
		return layout.Result{}, err
	}
	skipped := make([]model.Skip, 0, len(expanded.Skipped)+len(res.Skipped))
	res.Skipped = append(append(skipped, expanded.Skipped...), res.Skipped...)
	for _, sk := range res.Skipped {
		metrics.RecordEventSkipped(string(sk.Reason))
		s.logger.Warn(ctx, "event skipped",
			logger.String("id", sk.ID), logger.String("reason", string(sk.Reason)))
	}

	elapsed := time.Since(begin)
	metrics.RecordLayout(string(w.Type), float64(elapsed.Microseconds())/1000, len(res.Events))
	s.logger.Debug(ctx, "layout computed",
		logger.String("view", string(w.Type)),
		logger.String("anchor", w.Anchor),
		logger.Int("events", len(res.Events)),
		logger.Int("skipped", len(res.Skipped)),
		logger.Duration("elapsed", elapsed),
	)
	return res, nil
}

func countNonRepeating(events []model.Event) int {
	n := 0
	for _, ev := range events {
		if !ev.IsRepeating {
			n++
		}
	}
	return n
}

// storeResult maps a store error onto a metrics label.
func storeResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrConflict):
		return "conflict"
	case errors.Is(err, repository.ErrInvalidEvent):
		return "invalid"
	case errors.Is(err, repository.ErrClosed):
		return "closed"
	}
	return "error"
}

func (s *Service) observe(ctx context.Context, store repository.Store, op string, err error) {
	metrics.RecordStoreOp(op, storeResult(err))
	if err == nil && op != "get" && op != "list" {
		metrics.UpdateStoreEvents(store.Count(ctx))
	}
}

// CreateEvent stores a new event.
func (s *Service) CreateEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	store, err := s.activeStore()
	if err != nil {
		return model.Event{}, err
	}
	out, err := store.Create(ctx, ev)
	s.observe(ctx, store, "create", err)
	return out, err
}

// UpdateEvent replaces an existing event.
func (s *Service) UpdateEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	store, err := s.activeStore()
	if err != nil {
		return model.Event{}, err
	}
	out, err := store.Update(ctx, ev)
	s.observe(ctx, store, "update", err)
	return out, err
}

// GetEvent returns one event by id.
func (s *Service) GetEvent(ctx context.Context, id string) (model.Event, error) {
	store, err := s.activeStore()
	if err != nil {
		return model.Event{}, err
	}
	out, err := store.Get(ctx, id)
	s.observe(ctx, store, "get", err)
	return out, err
}

// DeleteEvent removes an event by id.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	store, err := s.activeStore()
	if err != nil {
		return err
	}
	err = store.Delete(ctx, id)
	s.observe(ctx, store, "delete", err)
	return err
}

// ListEvents returns every stored event.
func (s *Service) ListEvents(ctx context.Context) ([]model.Event, error) {
	store, err := s.activeStore()
	if err != nil {
		return nil, err
	}
	out, err := store.List(ctx)
	s.observe(ctx, store, "list", err)
	return out, err
}

func (s *Service) scheduledSync() {
	ctx := context.Background()
	if _, err := s.SyncICS(ctx); err != nil {
		s.logger.Warn(ctx, "scheduled ics sync finished with errors", logger.Error(err))
	}
}

// SyncICS downloads every configured feed concurrently and upserts its
// events. Events previously imported from a source that no longer appear in
// a freshly downloaded feed are removed. Per-source failures do not stop the
// other sources; they are joined into the returned error.
func (s *Service) SyncICS(ctx context.Context) (SyncReport, error) {
	store, err := s.activeStore()
	if err != nil {
		return SyncReport{}, err
	}
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	report := SyncReport{StartedAt: time.Now().UTC(), Sources: make([]SourceResult, len(s.sources))}
	errs := make([]error, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFeeds)
	for i, src := range s.sources {
		g.Go(func() error {
			res, err := s.syncSource(gctx, store, src)
			report.Sources[i] = res
			if err != nil {
				errs[i] = err
				report.Sources[i].Error = err.Error()
				metrics.RecordICSSync(src.ID, "error", 0)
				metrics.RecordErrorByComponent("ics", errorKind(err))
				s.logger.Error(gctx, "ics sync failed",
					logger.String("source", src.ID),
					logger.String("url", ics.RedactURL(src.URL)),
					logger.Error(err))
				return nil
			}
			metrics.RecordICSSync(src.ID, "ok", res.Imported)
			s.logger.Info(gctx, "ics sync done",
				logger.String("source", src.ID),
				logger.Int("imported", res.Imported),
				logger.Int("rejected", res.Rejected),
				logger.Int("removed", res.Removed),
				logger.Bool("fromCache", res.FromCache))
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(report.StartedAt)
	report.Duration = elapsed.String()
	metrics.RecordICSSyncDuration(elapsed.Seconds())
	metrics.UpdateStoreEvents(store.Count(ctx))

	s.mu.Lock()
	s.lastSync = &report
	s.mu.Unlock()

	if err := errors.Join(errs...); err != nil {
		return report, fmt.Errorf("%w: %w", ErrSync, err)
	}
	return report, nil
}

func (s *Service) syncSource(ctx context.Context, store repository.Store, src ics.Source) (SourceResult, error) {
	res := SourceResult{Source: src.ID}
	body, fromCache, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		return res, err
	}
	res.FromCache = fromCache
	if fromCache {
		return res, nil
	}

	events, dropped, err := ics.Parse(src, body, s.location)
	if err != nil {
		return res, err
	}
	res.Dropped = dropped

	keep := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if err := store.Upsert(ctx, ev); err != nil {
			res.Rejected++
			s.logger.Debug(ctx, "ics event rejected",
				logger.String("id", ev.ID), logger.Error(err))
			continue
		}
		keep[ev.ID] = struct{}{}
		res.Imported++
	}

	existing, err := store.List(ctx)
	if err != nil {
		return res, err
	}
	prefix := src.ID + ":"
	for _, ev := range existing {
		if _, ok := keep[ev.ID]; ok || !strings.HasPrefix(ev.ID, prefix) {
			continue
		}
		if err := store.Delete(ctx, ev.ID); err == nil {
			res.Removed++
		}
	}
	return res, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ics.ErrFetch):
		return "fetch"
	case errors.Is(err, ics.ErrParse):
		return "parse"
	}
	return "store"
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := make([]string, len(s.sources))
	for i, src := range s.sources {
		sources[i] = src.ID
	}
	stats := map[string]any{
		"started":      s.started,
		"icsSources":   sources,
		"icsRefresh":   s.refresh,
		"maxExpansion": s.maxExpansion,
	}
	if s.started {
		n := s.store.Count(context.Background())
		stats["events"] = n
		metrics.UpdateStoreEvents(n)
	}
	if s.lastSync != nil {
		stats["lastSync"] = *s.lastSync
	}
	return stats
}
