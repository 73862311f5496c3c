package pipeline

import "errors"

// ErrMissingCollaborator is returned when Capture lacks a source or estimator.
var ErrMissingCollaborator = errors.New("frame source and estimator are required")
