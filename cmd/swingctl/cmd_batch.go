package main

import (
	"runtime"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/swingscope/internal/domain/analysis"
	"github.com/okian/swingscope/pkg/logger"
)

// batchResult is one line of batch output. Err is set instead of Report when
// the input could not be analysed.
type batchResult struct {
	Input  string           `json:"input"`
	Report *analysis.Report `json:"report,omitempty"`
	Err    string           `json:"error,omitempty"`
}

func newBatchCommand(root *rootOptions) *cobra.Command {
	var (
		opts        analyzeOptions
		concurrency int
		failFast    bool
	)
	cmd := &cobra.Command{
		Use:   "batch <video>...",
		Short: "Analyze many swings concurrently",
		Long: `Analyze several swings in parallel and print one JSON array of results.

Each input gets its own pose model handle. Failures are reported per input
unless --fail-fast is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Named("swingctl")
			results := make([]batchResult, len(args))
			var mu sync.Mutex

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(1, concurrency))
			for i, path := range args {
				i, path := i, path
				g.Go(func() error {
					report, err := analyzeOne(ctx, root.cfg, &opts, path)
					mu.Lock()
					defer mu.Unlock()
					results[i].Input = path
					if err != nil {
						log.Warn(ctx, "analysis failed", logger.String("input", path), logger.Error(err))
						results[i].Err = err.Error()
						if failFast {
							return err
						}
						return nil
					}
					results[i].Report = &report
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", runtime.NumCPU(), "Maximum analyses in flight")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first failed input")
	cmd.Flags().BoolVar(&opts.keypoints, "keypoints", false, "Treat arguments as keypoint JSON files")
	cmd.Flags().Float64Var(&opts.fps, "fps", 0, "Frame sampling rate (default from config)")

	return cmd
}
