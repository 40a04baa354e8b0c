package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/skillbest/internal/loadgen"
)

const (
	defaultCompetitors = 2000
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultWait        = time.Minute
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		competitors = flag.Int("competitors", defaultCompetitors, "Number of competitors to generate")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		topN        = flag.Int("top", defaultTopN, "Leaderboard entries to verify")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		wait        = flag.Duration("wait", defaultWait, "Max time to wait for ingestion")
		seed        = flag.Uint64("seed", 0, "Generation seed; 0 picks one")
		reserved    = flag.String("reserved", "overall", "Reserved aggregate category")
		sentinel    = flag.String("sentinel", "--", "No-data sentinel")
		outputFile  = flag.String("output", "", "Write generated sheets to this JSON file")
		logFile     = flag.String("log", "", "Also write logs to this file")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	if err := loadgen.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:          *baseURL,
		Competitors:      *competitors,
		Workers:          *workers,
		Timeout:          *timeout,
		ProcessWait:      *wait,
		TopN:             *topN,
		Seed:             *seed,
		OutputFile:       *outputFile,
		LogFile:          *logFile,
		Verbose:          *verbose,
		ReservedCategory: *reserved,
		NoDataSentinel:   *sentinel,
	}

	if err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: cancel is called explicitly above
	}
}
