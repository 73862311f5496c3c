// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry
type Entry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	Score      float64 `json:"score"`
	AnalysisID string  `json:"analysis_id,omitempty"`
}
