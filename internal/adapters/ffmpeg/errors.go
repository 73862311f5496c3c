package ffmpeg

import "errors"

var (
	// ErrBinaryNotFound is returned when ffmpeg or ffprobe cannot be resolved.
	ErrBinaryNotFound = errors.New("binary not found")
	// ErrEmptyPath is returned when no video path is given.
	ErrEmptyPath = errors.New("video path is required")
	// ErrUnknownFrameRate is returned when the native frame rate cannot be read.
	ErrUnknownFrameRate = errors.New("unknown frame rate")
)
