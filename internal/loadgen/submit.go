package loadgen

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/okian/skillbest/pkg/logger"
)

type submitResult int

const (
	resultAccepted submitResult = iota
	resultDuplicate
	resultFailed
)

// submitSheets posts sheets concurrently with config.Workers submitters.
func submitSheets(ctx context.Context, config *Config, sheets []Sheet, stats *Stats) {
	log := logger.Named("loadgen")
	log.Info(ctx, "submitting sheets", logger.Int("sheets", len(sheets)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/sheets"

	var submitted, accepted, duplicate, failed atomic.Int64

	workers := max(config.Workers, 1)
	jobs := make(chan Sheet, workers*2)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sheet := range jobs {
				submitted.Add(1)
				switch submitSheet(ctx, client, url, sheet) {
				case resultAccepted:
					accepted.Add(1)
				case resultDuplicate:
					duplicate.Add(1)
				default:
					failed.Add(1)
					if config.Verbose {
						log.Warn(ctx, "sheet rejected", logger.String("competitor", sheet.CompetitorID))
					}
				}
			}
		}()
	}

feed:
	for _, sheet := range sheets {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- sheet:
		}
	}
	close(jobs)
	wg.Wait()

	stats.SheetsSubmitted = int(submitted.Load())
	stats.SheetsAccepted = int(accepted.Load())
	stats.SheetsDuplicate = int(duplicate.Load())
	stats.SheetsFailed = int(failed.Load())

	log.Info(ctx, "sheet submission completed",
		logger.Int("accepted", stats.SheetsAccepted),
		logger.Int("duplicate", stats.SheetsDuplicate),
		logger.Int("failed", stats.SheetsFailed))
}

func submitSheet(ctx context.Context, client *httpClient, url string, sheet Sheet) submitResult {
	status, body, err := client.post(ctx, url, sheet)
	if err != nil {
		return resultFailed
	}
	switch status {
	case http.StatusAccepted:
		return resultAccepted
	case http.StatusOK:
		if body.Get("duplicate").Bool() {
			return resultDuplicate
		}
		return resultAccepted
	default:
		return resultFailed
	}
}
