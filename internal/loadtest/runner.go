package loadtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/swingscope/internal/domain/model"
	"github.com/okian/swingscope/pkg/logger"
)

// ErrMismatch is returned when the leaderboard disagrees with the reports.
var ErrMismatch = errors.New("leaderboard mismatch")

// Run submits the generated swings, waits for them to be analysed and
// verifies the leaderboard.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	log := logger.Named("loadtest")
	start := time.Now()
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	if err := client.Health(ctx); err != nil {
		return Stats{}, fmt.Errorf("service health check failed: %w", err)
	}

	swings := Generate(cfg)
	stats := Stats{Generated: len(swings)}
	log.Info(ctx, "submitting swings",
		logger.Int("swings", len(swings)),
		logger.Int("players", cfg.Players),
		logger.Int("workers", cfg.Workers),
	)

	accepted, err := submit(ctx, client, cfg.Workers, swings, &stats)
	if err != nil {
		return stats, err
	}

	results, err := await(ctx, client, cfg, accepted)
	if err != nil {
		return stats, err
	}
	for _, a := range results {
		switch a.Status {
		case model.StatusDone:
			stats.Done++
		case model.StatusFailed:
			stats.Failed++
		default:
			stats.Pending++
		}
	}

	board, err := client.Leaderboard(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.Leaderboard = board
	stats.Duration = time.Since(start)

	if err := Verify(board, results); err != nil {
		return stats, err
	}
	log.Info(ctx, "simulation complete",
		logger.Int("done", stats.Done),
		logger.Int("failed", stats.Failed),
		logger.Int("rejected", stats.Rejected),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// submit posts swings with at most workers requests in flight and returns
// the ids the service accepted.
func submit(ctx context.Context, client *Client, workers int, swings []SwingRequest, stats *Stats) ([]string, error) {
	var (
		mu       sync.Mutex
		accepted []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for _, s := range swings {
		s := s
		g.Go(func() error {
			ack, status, err := client.Submit(gctx, s)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			switch status {
			case http.StatusAccepted:
				stats.Accepted++
				accepted = append(accepted, ack.AnalysisID)
			case http.StatusOK:
				stats.Duplicate++
			default:
				stats.Rejected++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("swing submission failed: %w", err)
	}
	return accepted, nil
}

// await polls until every id has left the pending state or the wait times out.
func await(ctx context.Context, client *Client, cfg Config, ids []string) ([]Analysis, error) {
	deadline := time.Now().Add(cfg.WaitTimeout)
	results := make(map[string]Analysis, len(ids))
	for {
		for _, id := range ids {
			if a, ok := results[id]; ok && a.Status != model.StatusPending {
				continue
			}
			a, err := client.Analysis(ctx, id)
			if err != nil {
				return nil, err
			}
			results[id] = a
		}
		if allSettled(results) || time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.PollInterval):
		}
	}
	out := make([]Analysis, 0, len(results))
	for _, id := range ids {
		out = append(out, results[id])
	}
	return out, nil
}

func allSettled(results map[string]Analysis) bool {
	for _, a := range results {
		if a.Status == model.StatusPending {
			return false
		}
	}
	return true
}

// Verify checks the leaderboard is ordered and that each listed player's
// score is the best composite among their finished analyses.
func Verify(board []Entry, results []Analysis) error {
	bestOf := make(map[string]float64)
	for _, a := range results {
		if a.Status != model.StatusDone {
			continue
		}
		s := float64(a.Score())
		if old, seen := bestOf[a.PlayerID]; !seen || s > old {
			bestOf[a.PlayerID] = s
		}
	}
	for i, e := range board {
		if i > 0 && e.Score > board[i-1].Score {
			return fmt.Errorf("%w: %s (%g) ranked below %s (%g)", ErrMismatch, e.PlayerID, e.Score, board[i-1].PlayerID, board[i-1].Score)
		}
		want, ok := bestOf[e.PlayerID]
		if !ok {
			return fmt.Errorf("%w: %s has no finished analysis", ErrMismatch, e.PlayerID)
		}
		if want != e.Score {
			return fmt.Errorf("%w: %s scored %g, best report is %g", ErrMismatch, e.PlayerID, e.Score, want)
		}
	}
	return nil
}
