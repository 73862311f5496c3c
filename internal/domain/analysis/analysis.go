// Package analysis runs one swing through segmentation, quality grading,
// metric extraction and scoring.
package analysis

import (
	"context"
	"fmt"
	"maps"

	"github.com/okian/swingscope/internal/domain/biomech"
	"github.com/okian/swingscope/internal/domain/pose"
	"github.com/okian/swingscope/internal/domain/scoring"
	"github.com/okian/swingscope/internal/domain/segment"
)

// Report is the outcome of analysing one swing.
type Report struct {
	Events     segment.Events      `json:"events"`
	Quality    segment.QualityFlag `json:"quality,omitempty"`
	Metrics    map[string]float64  `json:"metrics"`
	Score      scoring.Result      `json:"score"`
	Frames     int                 `json:"frames"`
	DurationMS float64             `json:"duration_ms"`
}

type options struct {
	segmenter  *segment.Segmenter
	overrides  map[string]float64
	analysisID string
}

// Option configures a single Analyze call.
type Option func(*options)

// WithSegmenter sets the segmenter used for event detection.
func WithSegmenter(s *segment.Segmenter) Option {
	return func(o *options) {
		if s != nil {
			o.segmenter = s
		}
	}
}

// WithMetricOverrides supplies metric values that win over extracted ones.
func WithMetricOverrides(m map[string]float64) Option {
	return func(o *options) {
		o.overrides = m
	}
}

// WithAnalysisID tags the scoring input.
func WithAnalysisID(id string) Option {
	return func(o *options) {
		o.analysisID = id
	}
}

// Analyze segments seq, grades it, extracts metrics and scores them with
// scorer. An empty sequence returns ErrNoSwingDetected.
func Analyze(ctx context.Context, seq pose.Sequence, scorer scoring.Scorer, opts ...Option) (Report, error) {
	if len(seq) == 0 {
		return Report{}, ErrNoSwingDetected
	}
	if scorer == nil {
		return Report{}, ErrNilScorer
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.segmenter == nil {
		o.segmenter = segment.New()
	}
	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("context cancelled: %w", err)
	}

	events, sig := o.segmenter.Run(seq)
	metrics := biomech.Extract(seq, events, sig)
	maps.Copy(metrics, o.overrides)

	res, err := scorer.Score(ctx, scoring.Input{AnalysisID: o.analysisID, Metrics: metrics})
	if err != nil {
		return Report{}, fmt.Errorf("score swing: %w", err)
	}

	return Report{
		Events:     events,
		Quality:    segment.AssessQuality(seq),
		Metrics:    metrics,
		Score:      res,
		Frames:     len(seq),
		DurationMS: seq.Duration(),
	}, nil
}
