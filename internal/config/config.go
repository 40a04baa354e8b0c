// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and the environment on top of the defaults.
// - External errors must be wrapped with this package's sentinel errors.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory sheet queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the number of submission IDs remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Capacity is the number of categories one competitor may hold.
	Capacity int `koanf:"capacity"`

	// ReservedCategory names the aggregate column that never takes part in assignment.
	ReservedCategory string `koanf:"reserved_category"`

	// NoDataSentinel is the raw value meaning "no score".
	NoDataSentinel string `koanf:"no_data_sentinel"`

	// CutoffCompetitor, when set and present, limits assignment to competitors sorted before it.
	CutoffCompetitor string `koanf:"cutoff_competitor"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		Capacity:            3,
		ReservedCategory:    "overall",
		NoDataSentinel:      "--",
	}
}
