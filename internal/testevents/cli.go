package testevents

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/calgrid/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends log output to both the console and a file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		logFile = "seed_log_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file)), logger.WithLevel(level)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`Calgrid Seed Tool
=================

Seeds a running calgrid service with random events and checks the layouts it
serves for column, geometry and bar-stacking consistency.

Usage:
  go run ./cmd/calgrid-seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -events int
        Number of events to generate and submit (default 500)
  -anchor string
        First date to place events on (default: today)
  -weeks int
        Number of weeks to spread events over and verify (default 4)
  -seed uint
        Generator seed (default: current time)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated events (default: seeded_events_TIMESTAMP.yaml)
  -log string
        Log file for run output (default: seed_log_TIMESTAMP.log)
  -verbose
        Enable debug logging
  -help
        Show this help message

Examples:
  # Seed four weeks from today
  go run ./cmd/calgrid-seed

  # Reproducible run against another host
  go run ./cmd/calgrid-seed -seed 42 -anchor 2024-05-06 -url http://localhost:8080

  # Lay out the saved events offline
  go run ./cmd/calgrid-layout -events seeded_events.yaml -date 2024-05-06
`)
}
