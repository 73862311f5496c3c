package analysis

import "errors"

var (
	// ErrNoSwingDetected is returned when no frame contained a subject.
	ErrNoSwingDetected = errors.New("no swing detected")
	// ErrNilScorer is returned when Analyze is called without a scorer.
	ErrNilScorer = errors.New("scorer is nil")
)
