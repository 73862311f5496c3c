package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/swingscope/internal/domain/scoring"
)

var errNoMetrics = errors.New("no metrics to score")

func newScoreCommand(root *rootOptions) *cobra.Command {
	var showRubric bool
	cmd := &cobra.Command{
		Use:   "score [metrics.json]",
		Short: "Score a metric map against the rubric",
		Long: `Score a JSON metric map such as {"hip_shoulder_separation_deg": 42, "head_drift_ratio": 0.05}.

A {"metrics": {...}} envelope is accepted too. With --rubric the active rubric
is printed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rubric := root.cfg.ScoringRubric()
			if err := rubric.Validate(); err != nil {
				return err
			}
			if showRubric {
				return writeJSON(cmd.OutOrStdout(), rubric)
			}
			if len(args) == 0 {
				return errNoMetrics
			}

			metrics, err := readMetrics(args[0])
			if err != nil {
				return err
			}
			scorer := scoring.NewRubricScorer(scoring.WithRubric(rubric))
			res, err := scorer.Score(cmd.Context(), scoring.Input{Metrics: metrics})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().BoolVar(&showRubric, "rubric", false, "Print the active rubric and exit")

	return cmd
}

func readMetrics(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metrics: %w", err)
	}
	var envelope struct {
		Metrics map[string]float64 `json:"metrics"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Metrics) > 0 {
		return envelope.Metrics, nil
	}
	var metrics map[string]float64
	if err := json.Unmarshal(data, &metrics); err != nil {
		return nil, fmt.Errorf("parsing metrics %s: %w", path, err)
	}
	if len(metrics) == 0 {
		return nil, errNoMetrics
	}
	return metrics, nil
}
