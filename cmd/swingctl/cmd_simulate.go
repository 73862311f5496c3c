package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/swingscope/internal/loadtest"
)

func newSimulateCommand(_ *rootOptions) *cobra.Command {
	cfg := loadtest.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a running server with synthetic swings",
		Long: `Submit synthetic swings to a running swing service, wait for the analyses
to finish and check the leaderboard against the stored reports.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := loadtest.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "swings: %d generated, %d accepted, %d duplicate, %d rejected\n",
				stats.Generated, stats.Accepted, stats.Duplicate, stats.Rejected)
			fmt.Fprintf(out, "analyses: %d done, %d failed, %d pending in %s\n",
				stats.Done, stats.Failed, stats.Pending, stats.Duration)
			for _, e := range stats.Leaderboard {
				fmt.Fprintf(out, "%4d  %-12s %6.1f\n", e.Rank, e.PlayerID, e.Score)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Base URL of the swing service")
	f.IntVar(&cfg.Players, "players", cfg.Players, "Number of players")
	f.IntVar(&cfg.SwingsPer, "swings", cfg.SwingsPer, "Swings per player")
	f.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "Concurrent submitters")
	f.IntVar(&cfg.TopN, "top", cfg.TopN, "Leaderboard rows to fetch")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	f.DurationVar(&cfg.WaitTimeout, "wait", cfg.WaitTimeout, "How long to wait for analyses")

	return cmd
}
