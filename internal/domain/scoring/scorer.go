package scoring

import (
	"context"
	"fmt"
)

// Input is a named metric map to score.
type Input struct {
	AnalysisID string
	Metrics    map[string]float64
}

// Scorer computes a composite score from metric values.
type Scorer interface {
	// Score computes a score, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// Option applies a configuration option to the RubricScorer.
type Option func(*RubricScorer)

// WithRubric replaces the default rubric. An empty rubric is ignored.
func WithRubric(r Rubric) Option {
	return func(s *RubricScorer) {
		if len(r) > 0 {
			s.rubric = append(Rubric(nil), r...)
		}
	}
}

// RubricScorer implements Scorer against a fixed rubric.
type RubricScorer struct {
	rubric Rubric
}

// NewRubricScorer creates a scorer using DefaultRubric unless overridden.
func NewRubricScorer(opts ...Option) *RubricScorer {
	s := &RubricScorer{rubric: DefaultRubric()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rubric returns a copy of the rubric in use.
func (s *RubricScorer) Rubric() Rubric {
	return append(Rubric(nil), s.rubric...)
}

// Score computes a score for the given input.
func (s *RubricScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	return Score(in.Metrics, s.rubric), nil
}
