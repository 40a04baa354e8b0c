package loadgen

import "time"

// Config holds configuration for one load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Competitors int           // Number of competitors (one sheet each)
	Categories  []string      // Category names put on every sheet
	Workers     int           // Number of concurrent submitters
	Timeout     time.Duration // HTTP request timeout
	ProcessWait time.Duration // How long to wait for ingestion to catch up
	TopN        int           // Leaderboard entries to fetch
	Seed        uint64        // Seed for sheet generation; 0 means random
	OutputFile  string        // Where generated sheets are written
	LogFile     string        // Log file for run output
	Verbose     bool          // Enable verbose logging

	ReservedCategory string // Aggregate column excluded from assignment
	NoDataSentinel   string // Raw value meaning "no score"
}

// DefaultCategories is used when Config.Categories is empty.
var DefaultCategories = []string{"sprint", "relay", "swim", "dive", "vault", "throw", "jump", "row"}

// Sheet is the POST /sheets request body.
type Sheet struct {
	SubmissionID string            `json:"submission_id"`
	CompetitorID string            `json:"competitor_id"`
	Scores       map[string]string `json:"scores"`
	TS           string            `json:"ts"`
}

// Stats holds run statistics.
type Stats struct {
	SheetsGenerated    int
	SheetsSubmitted    int
	SheetsAccepted     int
	SheetsDuplicate    int
	SheetsFailed       int
	CategoriesAssigned int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
