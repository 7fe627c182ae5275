// Command calgrid serves the calendar layout API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/calgrid/internal/adapters/http/api"
	"github.com/okian/calgrid/internal/adapters/http/swagger"
	"github.com/okian/calgrid/internal/adapters/ics"
	service "github.com/okian/calgrid/internal/app"
	"github.com/okian/calgrid/internal/config"
	"github.com/okian/calgrid/internal/domain/layout"
	"github.com/okian/calgrid/internal/domain/timeofday"
	"github.com/okian/calgrid/pkg/logger"
	"github.com/okian/calgrid/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 15 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not configured yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(logger.Format(cfg.LogFormat)), logger.WithLevel(cfg.LogLevel)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "calgrid stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run starts the service and HTTP server and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	if err := registerRuntimeCollectors(metrics.GetRegistry()); err != nil {
		log.Warn(ctx, "runtime collectors unavailable", logger.Error(err))
	}

	opts, err := serviceOptions(cfg)
	if err != nil {
		return err
	}
	svc := service.New(append(opts, service.WithLogger(log))...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	if len(cfg.ICSSources) > 0 {
		go initialSync(ctx, svc)
	}
	go startServiceMetricsUpdater(ctx, svc)

	srv := newHTTPServer(cfg.Addr, newMux(ctx, svc))

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// serviceOptions maps configuration onto service options.
func serviceOptions(cfg *config.Config) ([]service.Option, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}

	sources := make([]ics.Source, len(cfg.ICSSources))
	for i, s := range cfg.ICSSources {
		sources[i] = ics.Source{ID: s.ID, URL: s.URL}
	}

	opts := []service.Option{
		service.WithEngineOptions(
			layout.WithHourHeight(cfg.HourHeight),
			layout.WithMinEventHeight(cfg.MinEventHeight),
			layout.WithFirstDayOfWeek(cfg.FirstDayOfWeek),
			layout.WithTimeFormat(timeofday.Format(cfg.TimeFormat)),
		),
		service.WithMaxExpansion(cfg.MaxExpansion),
		service.WithICSSources(sources),
		service.WithICSRefresh(cfg.ICSRefresh),
		service.WithLocation(loc),
	}
	if cfg.Store == config.StoreBolt {
		opts = append(opts, service.WithBoltPath(cfg.BoltPath))
	}
	return opts, nil
}

// newMux registers the docs and API routes.
func newMux(ctx context.Context, svc api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)
	return mux
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// registerRuntimeCollectors adds Go runtime and process metrics to reg.
// Collectors that are already registered are left in place.
func registerRuntimeCollectors(reg prometheus.Registerer) error {
	var errs []error
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// initialSync imports ICS feeds once at startup instead of waiting for the
// first scheduled run.
func initialSync(ctx context.Context, svc *service.Service) {
	report, err := svc.SyncICS(ctx)
	if err != nil {
		logger.Get().Warn(ctx, "initial ICS sync incomplete", logger.Error(err))
		return
	}
	logger.Get().Info(ctx, "initial ICS sync done",
		logger.Int("sources", len(report.Sources)),
		logger.Duration("duration", report.Duration))
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics publishes the stored event count.
func updateServiceMetrics(svc *service.Service) {
	// GetStats refreshes the store gauge as a side effect.
	_ = svc.GetStats()
}
