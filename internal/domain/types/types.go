// Package types contains common types used across the application
package types

// Entry represents a totals leaderboard entry
type Entry struct {
	Rank         int    `json:"rank"`
	CompetitorID string `json:"competitor_id"`
	Total        int64  `json:"total"`
}

// Winner is one category awarded by the assignment engine.
type Winner struct {
	Category     string `json:"category"`
	CompetitorID string `json:"competitor_id"`
	Score        int64  `json:"score"`
}

// CategoryScore is one row of a competitor's sheet as shown to clients.
type CategoryScore struct {
	Category string `json:"category"`
	Raw      string `json:"raw"`
	Score    int64  `json:"score"`
	HasScore bool   `json:"has_score"`
}

// Competitor is a single competitor's view: parsed sheet, total and rank.
type Competitor struct {
	CompetitorID string          `json:"competitor_id"`
	Rank         int             `json:"rank"`
	Total        int64           `json:"total"`
	Categories   []CategoryScore `json:"categories"`
	Won          []string        `json:"won,omitempty"`
}

// AssignmentReport is the outcome of one assignment run as shown to clients.
type AssignmentReport struct {
	Winners     []Winner `json:"winners"`
	Unassigned  []string `json:"unassigned"`
	Competitors int      `json:"competitors"`
	Excluded    int      `json:"excluded"`
	Capacity    int      `json:"capacity"`
	Passes      int      `json:"passes"`
	Claims      int      `json:"claims"`
	RollDowns   int      `json:"roll_downs"`
	Swaps       int      `json:"swaps"`
}
