// Command calgrid-seed fills a running calgrid service with generated events
// and verifies the layouts it serves.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/calgrid/internal/domain/model"
	"github.com/okian/calgrid/internal/testevents"
)

// Default configuration constants.
const (
	defaultNumEvents  = 500
	defaultWeeks      = 4
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numEvents  = flag.Int("events", defaultNumEvents, "Number of events to generate and submit")
		anchor     = flag.String("anchor", model.FormatDate(time.Now()), "First date to place events on")
		weeks      = flag.Int("weeks", defaultWeeks, "Number of weeks to spread events over and verify")
		seed       = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Generator seed")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for generated events (default: seeded_events_TIMESTAMP.yaml)")
		logFile    = flag.String("log", "", "Log file for run output (default: seed_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}

	if err := testevents.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &testevents.Config{
		BaseURL:    *baseURL,
		NumEvents:  *numEvents,
		Anchor:     *anchor,
		Weeks:      *weeks,
		Seed:       *seed,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if err := testevents.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seed run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
