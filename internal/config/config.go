// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Functions that may block accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"runtime"

	"github.com/okian/swingscope/internal/domain/scoring"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// MetricConfig is one rubric entry as written in YAML.
type MetricConfig struct {
	Name      string  `koanf:"name"`
	Low       float64 `koanf:"low"`
	High      float64 `koanf:"high"`
	Weight    float64 `koanf:"weight"`
	Invert    bool    `koanf:"invert"`
	AbsWindow bool    `koanf:"abs_window"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// QueueSize bounds the in-memory analysis queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets the size of the analysis id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	// MaxFrames caps the frames accepted in one submission.
	MaxFrames int `koanf:"max_frames"`
	// SmoothingWindow is the moving-average window used before segmentation.
	SmoothingWindow int `koanf:"smoothing_window"`

	// StoreDriver selects the result store: memory or postgres.
	StoreDriver string `koanf:"store_driver"`
	// PostgresDSN is used when StoreDriver is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// FFmpegPath and FFprobePath locate the video tools.
	FFmpegPath  string `koanf:"ffmpeg_path"`
	FFprobePath string `koanf:"ffprobe_path"`
	// SampleFPS is the frame sampling rate for video analysis, 0 for native.
	SampleFPS float64 `koanf:"sample_fps"`
	// ModelPath is the ONNX pose model file.
	ModelPath string `koanf:"model_path"`
	// ONNXRuntimeLib is the onnxruntime shared library, empty for the default.
	ONNXRuntimeLib string `koanf:"onnxruntime_lib"`

	// Rubric replaces the default scoring rubric when non-empty.
	Rubric []MetricConfig `koanf:"rubric"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		MaxFrames:           3_000,
		SmoothingWindow:     5,
		StoreDriver:         StoreMemory,
		FFmpegPath:          "ffmpeg",
		FFprobePath:         "ffprobe",
		SampleFPS:           30,
		ModelPath:           "models/movenet_lightning.onnx",
	}
}

// ScoringRubric returns the configured rubric, or the default one when none
// is configured.
func (c *Config) ScoringRubric() scoring.Rubric {
	if len(c.Rubric) == 0 {
		return scoring.DefaultRubric()
	}
	r := make(scoring.Rubric, len(c.Rubric))
	for i, m := range c.Rubric {
		r[i] = scoring.MetricSpec{
			Name:      m.Name,
			Target:    [2]float64{m.Low, m.High},
			Weight:    m.Weight,
			Invert:    m.Invert,
			AbsWindow: m.AbsWindow,
		}
	}
	return r
}
