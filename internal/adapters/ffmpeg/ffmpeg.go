// Package ffmpeg samples video frames to disk with the ffmpeg and ffprobe
// binaries.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/swingscope/internal/pipeline"
	"github.com/okian/swingscope/pkg/logger"
)

const (
	defaultFFmpeg  = "ffmpeg"
	defaultFFprobe = "ffprobe"
	framePattern   = "frame_%05d.jpg"
	frameGlob      = "frame_*.jpg"
)

// VideoInfo is the subset of ffprobe output the extractor needs.
type VideoInfo struct {
	Duration time.Duration
	FPS      float64
	Width    int
	Height   int
}

// Extractor implements pipeline.FrameSource.
type Extractor struct {
	logger      logger.Logger
	ffmpegPath  string
	ffprobePath string
	tempDir     string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFFmpegPath sets the ffmpeg binary.
func WithFFmpegPath(p string) Option {
	return func(e *Extractor) {
		if p != "" {
			e.ffmpegPath = p
		}
	}
}

// WithFFprobePath sets the ffprobe binary.
func WithFFprobePath(p string) Option {
	return func(e *Extractor) {
		if p != "" {
			e.ffprobePath = p
		}
	}
}

// WithTempDir sets the parent directory for sampled frames.
func WithTempDir(dir string) Option {
	return func(e *Extractor) {
		e.tempDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New resolves the ffmpeg and ffprobe binaries and returns an Extractor.
func New(opts ...Option) (*Extractor, error) {
	e := &Extractor{
		logger:      logger.Named("ffmpeg"),
		ffmpegPath:  defaultFFmpeg,
		ffprobePath: defaultFFprobe,
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.ffmpegPath, err = exec.LookPath(e.ffmpegPath); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %w", ErrBinaryNotFound, err)
	}
	if e.ffprobePath, err = exec.LookPath(e.ffprobePath); err != nil {
		return nil, fmt.Errorf("%w: ffprobe: %w", ErrBinaryNotFound, err)
	}
	return e, nil
}

// Probe reads the duration, frame rate and size of a video.
func (e *Extractor) Probe(ctx context.Context, path string) (VideoInfo, error) {
	if path == "" {
		return VideoInfo{}, ErrEmptyPath
	}
	args := []string{"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path}
	out, err := exec.CommandContext(ctx, e.ffprobePath, args...).Output()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe(out)
}

// Extract samples path at fps into a temporary directory. When fps is not
// positive the native frame rate is used.
func (e *Extractor) Extract(ctx context.Context, path string, fps float64) (pipeline.Extraction, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if fps <= 0 {
		info, err := e.Probe(ctx, path)
		if err != nil {
			return nil, err
		}
		if info.FPS <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFrameRate, path)
		}
		fps = info.FPS
	}

	dir, err := os.MkdirTemp(e.tempDir, "swingscope-frames-*")
	if err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}
	set := &frameSet{dir: dir}

	args := extractArgs(path, dir, fps)
	e.logger.Debug(ctx, "executing ffmpeg", logger.String("args", strings.Join(args, " ")))
	if out, err := exec.CommandContext(ctx, e.ffmpegPath, args...).CombinedOutput(); err != nil {
		_ = set.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, strings.TrimSpace(string(out)))
	}

	if set.frames, err = collect(dir, fps); err != nil {
		_ = set.Close()
		return nil, err
	}
	e.logger.Info(ctx, "sampled video frames",
		logger.String("video", path),
		logger.Float64("fps", fps),
		logger.Int("frames", len(set.frames)))
	return set, nil
}

func extractArgs(input, dir string, fps float64) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", input,
		"-vf", "fps=" + strconv.FormatFloat(fps, 'f', -1, 64),
		"-q:v", "2",
		filepath.Join(dir, framePattern),
	}
}

// collect lists the sampled frames in order and stamps their timestamps.
func collect(dir string, fps float64) ([]pipeline.VideoFrame, error) {
	paths, err := filepath.Glob(filepath.Join(dir, frameGlob))
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	sort.Strings(paths)
	frames := make([]pipeline.VideoFrame, len(paths))
	for i, p := range paths {
		frames[i] = pipeline.VideoFrame{Index: i, T: float64(i) * 1000 / fps, Path: p}
	}
	return frames, nil
}

type frameSet struct {
	dir    string
	frames []pipeline.VideoFrame
}

func (f *frameSet) Frames() []pipeline.VideoFrame { return f.frames }

func (f *frameSet) Close() error { return os.RemoveAll(f.dir) }

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

func parseProbe(out []byte) (VideoInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(out, &probe); err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	var info VideoInfo
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(dur * float64(time.Second))
	}
	for _, s := range probe.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Width, info.Height = s.Width, s.Height
		info.FPS = parseFrameRate(s.RFrameRate)
		break
	}
	return info, nil
}

// parseFrameRate parses ffprobe rates such as "30000/1001".
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
