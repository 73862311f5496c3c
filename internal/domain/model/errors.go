package model

import "errors"

// Sentinel kinds shared by the service and transport layers.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrTooManyFrames     = errors.New("too many frames")
	ErrBackpressure      = errors.New("analysis queue full")
	ErrNotStarted        = errors.New("service not started")
)
