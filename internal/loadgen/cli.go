// Package loadgen drives a running service with generated score sheets and
// checks its answers against a local engine run.
package loadgen

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/skillbest/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the logger, teeing output to logFile when set.
func SetupLogging(logFile string, verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	if logFile == "" {
		return nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	return logger.SetOutput(io.MultiWriter(os.Stdout, file))
}

// ShowHelp prints usage information.
func ShowHelp() {
	os.Stdout.WriteString(`skillbest load generator

Submits one generated score sheet per competitor, waits for ingestion and
verifies the leaderboard and category assignments.

Usage:
  loadgen [options]

Options:
  -url string          Base URL of the service (default "http://localhost:9080")
  -competitors int     Number of competitors to generate (default 2000)
  -workers int         Concurrent submitters (default CPU cores * 2)
  -top int             Leaderboard entries to verify (default 50)
  -timeout duration    HTTP request timeout (default 30s)
  -wait duration       Max time to wait for ingestion (default 1m)
  -seed uint           Generation seed; 0 picks one (default 0)
  -output string       Write generated sheets to this JSON file
  -log string          Also write logs to this file
  -verbose             Enable debug logging
  -help                Show this help message
`)
}
