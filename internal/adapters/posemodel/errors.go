package posemodel

import "errors"

var (
	// ErrHandleBusy is returned when a Handle is used by two callers at once.
	ErrHandleBusy = errors.New("pose model handle is busy")
	// ErrHandleClosed is returned when a closed Handle is used.
	ErrHandleClosed = errors.New("pose model handle is closed")
	// ErrModelNotFound is returned when the model file is missing.
	ErrModelNotFound = errors.New("pose model not found")
)
