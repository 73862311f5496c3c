package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/swingscope/internal/adapters/ffmpeg"
	"github.com/okian/swingscope/internal/adapters/posemodel"
	"github.com/okian/swingscope/internal/config"
	"github.com/okian/swingscope/internal/domain/analysis"
	"github.com/okian/swingscope/internal/domain/pose"
	"github.com/okian/swingscope/internal/domain/scoring"
	"github.com/okian/swingscope/internal/domain/segment"
	"github.com/okian/swingscope/internal/pipeline"
	"github.com/okian/swingscope/pkg/logger"
)

type analyzeOptions struct {
	keypoints bool
	fps       float64
}

func newAnalyzeCommand(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Segment and score one swing",
		Long: `Analyze one swing and print its report as JSON.

By default the argument is a video: frames are sampled with ffmpeg and each
frame is run through the pose model. With --keypoints the argument is a JSON
array of frames ({t, keypoints:[{name, x, y, score}]}) instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := analyzeOne(cmd.Context(), root.cfg, opts, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVar(&opts.keypoints, "keypoints", false, "Treat the argument as a keypoint JSON file")
	cmd.Flags().Float64Var(&opts.fps, "fps", 0, "Frame sampling rate (default from config)")

	return cmd
}

// analyzeOne produces the report for a single input. Video inputs open their
// own pose model handle.
func analyzeOne(ctx context.Context, cfg *config.Config, opts *analyzeOptions, path string) (analysis.Report, error) {
	var (
		seq pose.Sequence
		err error
	)
	if opts.keypoints {
		seq, err = readKeypoints(path)
	} else {
		fps := opts.fps
		if fps <= 0 {
			fps = cfg.SampleFPS
		}
		seq, err = captureVideo(ctx, cfg, path, fps)
	}
	if err != nil {
		return analysis.Report{}, err
	}

	rubric := cfg.ScoringRubric()
	if err := rubric.Validate(); err != nil {
		return analysis.Report{}, err
	}
	scorer := scoring.NewRubricScorer(scoring.WithRubric(rubric))
	report, err := analysis.Analyze(ctx, seq, scorer,
		analysis.WithSegmenter(segment.New(segment.WithSmoothingWindow(cfg.SmoothingWindow))),
	)
	if err != nil {
		return analysis.Report{}, fmt.Errorf("analyzing %s: %w", path, err)
	}
	return report, nil
}

func readKeypoints(path string) (pose.Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keypoints: %w", err)
	}
	var raw []pose.RawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing keypoints %s: %w", path, err)
	}
	return pose.BuildSequence(raw), nil
}

func captureVideo(ctx context.Context, cfg *config.Config, path string, fps float64) (pose.Sequence, error) {
	log := logger.Named("swingctl")
	ex, err := ffmpeg.New(
		ffmpeg.WithFFmpegPath(cfg.FFmpegPath),
		ffmpeg.WithFFprobePath(cfg.FFprobePath),
		ffmpeg.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	model, err := posemodel.Open(cfg.ModelPath,
		posemodel.WithSharedLibrary(cfg.ONNXRuntimeLib),
		posemodel.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := model.Close(); cerr != nil {
			log.Warn(ctx, "closing pose model", logger.Error(cerr))
		}
	}()

	return pipeline.Capture(ctx, ex, model, path, fps, func(done, total int) {
		log.Debug(ctx, "frames processed", logger.String("video", path), logger.Int("done", done), logger.Int("total", total))
	})
}
