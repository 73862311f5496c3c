package worker

import (
	"github.com/okian/swingscope/internal/domain/segment"
	"github.com/okian/swingscope/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithSegmenter sets the segmenter used for every analysis.
func WithSegmenter(s *segment.Segmenter) Option {
	return func(w *InMemoryWorker) {
		if s != nil {
			w.segmenter = s
		}
	}
}
