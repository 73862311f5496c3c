// Package loadtest drives a running swing service with synthetic swings and
// checks that the leaderboard agrees with the stored reports.
package loadtest

import (
	"time"

	"github.com/okian/swingscope/internal/domain/model"
	"github.com/okian/swingscope/internal/domain/pose"
	"github.com/okian/swingscope/internal/domain/types"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL      string        // base URL of the service
	Players      int           // distinct players
	SwingsPer    int           // swings submitted per player
	Workers      int           // concurrent submitters
	Timeout      time.Duration // per-request timeout
	WaitTimeout  time.Duration // how long to wait for analyses to finish
	PollInterval time.Duration
	TopN         int
	Seed         int64
}

// DefaultConfig returns a small run against a local server.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:9080",
		Players:      10,
		SwingsPer:    3,
		Workers:      4,
		Timeout:      10 * time.Second,
		WaitTimeout:  time.Minute,
		PollInterval: 100 * time.Millisecond,
		TopN:         10,
		Seed:         1,
	}
}

// SwingRequest is the body of POST /analyses.
type SwingRequest struct {
	AnalysisID string          `json:"analysis_id"`
	PlayerID   string          `json:"player_id"`
	Frames     []pose.RawFrame `json:"frames"`
}

// Ack is the response to a submission.
type Ack struct {
	Status     string `json:"status"`
	AnalysisID string `json:"analysis_id"`
	Duplicate  bool   `json:"duplicate"`
}

// Entry is a leaderboard row.
type Entry = types.Entry

// Analysis is the stored state of a submission.
type Analysis = model.Analysis

// Stats summarises a run.
type Stats struct {
	Generated   int
	Accepted    int
	Duplicate   int
	Rejected    int
	Done        int
	Failed      int
	Pending     int
	Leaderboard []Entry
	Duration    time.Duration
}
