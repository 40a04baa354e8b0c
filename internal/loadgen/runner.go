package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/skillbest/pkg/logger"
)

const (
	directoryPermission = 0750
	pollInterval        = 250 * time.Millisecond
)

// Run generates sheets, submits them, waits for ingestion and verifies the
// leaderboard and assignments against a local engine run.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("loadgen")

	log.Info(ctx, "starting load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("competitors", config.Competitors),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	client := newHTTPClient(config.Timeout)
	if err := checkServiceHealth(ctx, config, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	sheets, err := generateSheets(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("sheet generation failed: %w", err)
	}

	baseline, err := storedCompetitors(ctx, config, client)
	if err != nil {
		return err
	}

	submitSheets(ctx, config, sheets, stats)
	if stats.SheetsFailed > 0 {
		return fmt.Errorf("%d sheets were rejected", stats.SheetsFailed)
	}

	if err := waitForProcessing(ctx, config, client, baseline+stats.SheetsAccepted); err != nil {
		return err
	}

	if err := verifyLeaderboard(ctx, config, client, sheets, stats); err != nil {
		return fmt.Errorf("leaderboard verification failed: %w", err)
	}
	if err := verifyAssignments(ctx, config, client, sheets, stats); err != nil {
		return fmt.Errorf("assignment verification failed: %w", err)
	}

	if config.OutputFile != "" {
		if err := saveSheetsToFile(config.OutputFile, sheets); err != nil {
			log.Warn(ctx, "failed to save sheets to file", logger.Error(err))
		} else {
			log.Info(ctx, "sheets saved to file", logger.String("filename", config.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return nil
}

func checkServiceHealth(ctx context.Context, config *Config, client *httpClient) error {
	status, _, err := client.get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}

func storedCompetitors(ctx context.Context, config *Config, client *httpClient) (int, error) {
	_, doc, err := client.get(ctx, config.BaseURL+"/stats")
	if err != nil {
		return 0, fmt.Errorf("failed to read stats: %w", err)
	}
	return int(doc.Get("totalCompetitors").Int()), nil
}

// waitForProcessing polls /stats until want competitors are stored or
// config.ProcessWait passes.
func waitForProcessing(ctx context.Context, config *Config, client *httpClient, want int) error {
	ctx, cancel := context.WithTimeout(ctx, config.ProcessWait)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		got, err := storedCompetitors(ctx, config, client)
		if err == nil && got >= want {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ingestion did not reach %d competitors (have %d): %w", want, got, ctx.Err())
		case <-ticker.C:
		}
	}
}

func saveSheetsToFile(filename string, sheets []Sheet) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(sheets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sheets: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var sheetsPerSecond float64
	if stats.Duration > 0 {
		sheetsPerSecond = float64(stats.SheetsSubmitted) / stats.Duration.Seconds()
	}
	logger.Named("loadgen").Info(ctx, "final statistics",
		logger.Int("sheetsGenerated", stats.SheetsGenerated),
		logger.Int("sheetsSubmitted", stats.SheetsSubmitted),
		logger.Int("sheetsAccepted", stats.SheetsAccepted),
		logger.Int("sheetsDuplicate", stats.SheetsDuplicate),
		logger.Int("sheetsFailed", stats.SheetsFailed),
		logger.Int("categoriesAssigned", stats.CategoriesAssigned),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("sheetsPerSecond", sheetsPerSecond))
}
