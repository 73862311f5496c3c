package scoring

import "errors"

var (
	// ErrInvalidSpec is returned when a metric spec cannot be scored against.
	ErrInvalidSpec = errors.New("invalid metric spec")
	// ErrDuplicateMetric is returned when a rubric names a metric twice.
	ErrDuplicateMetric = errors.New("duplicate metric in rubric")
	// ErrEmptyRubric is returned when a rubric has no metrics.
	ErrEmptyRubric = errors.New("empty rubric")
)
