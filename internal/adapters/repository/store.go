// Package repository persists analysis results and ranks players by their
// best composite score.
package repository

import (
	"context"

	"github.com/okian/swingscope/internal/domain/model"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank       int
	PlayerID   string
	Score      float64
	AnalysisID string
}

// Ranking orders players by best score.
//
// Order is score DESC then player id ASC. Tied scores share a rank and the
// next distinct score skips the tied positions (1, 1, 3).
type Ranking interface {
	// UpdateBest records score for player when it beats the stored best.
	// Returns true if the stored best changed.
	UpdateBest(ctx context.Context, playerID string, score float64, analysisID string) (bool, error)

	// Rank returns the current rank and best score for a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, playerID string) (Entry, error)

	// TopN returns the top-N entries in rank order.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of ranked players.
	Count(ctx context.Context) int
}

// Results stores analysis records by id.
type Results interface {
	// Save inserts or replaces the analysis with the same id.
	Save(ctx context.Context, a model.Analysis) error

	// Get returns ErrAnalysisNotFound for unknown ids.
	Get(ctx context.Context, id string) (model.Analysis, error)
}

// Store is the full persistence surface used by the service.
type Store interface {
	Ranking
	Results
	Close() error
}

// assignRanks sets competition ranks on entries already in rank order.
func assignRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
