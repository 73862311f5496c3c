// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/swingscope/internal/domain/analysis"
	"github.com/okian/swingscope/internal/domain/pose"
)

// Status is the lifecycle state of a submitted analysis.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Submission is a swing handed to the service for asynchronous analysis.
type Submission struct {
	AnalysisID  string             // unique id for idempotency
	PlayerID    string             // subject the swing belongs to
	Sequence    pose.Sequence      // keypoint frames ordered by time
	Overrides   map[string]float64 // caller-measured metrics, win over extracted ones
	SubmittedAt time.Time
}

// Receipt acknowledges a submission.
type Receipt struct {
	AnalysisID string
	Duplicate  bool
}

// Analysis is the stored state of one submission.
type Analysis struct {
	ID          string           `json:"analysis_id"`
	PlayerID    string           `json:"player_id"`
	Status      Status           `json:"status"`
	Report      *analysis.Report `json:"report,omitempty"`
	Error       string           `json:"error,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// Score returns the composite score, or 0 when the analysis has no report.
func (a Analysis) Score() int {
	if a.Report == nil {
		return 0
	}
	return a.Report.Score.Score
}

// PlayerScore captures a player's best composite score used for ranking.
type PlayerScore struct {
	PlayerID   string
	Score      float64
	AnalysisID string
}
