// Package pipeline turns a video into a keypoint sequence by sampling frames
// and running a pose estimator over each of them.
package pipeline

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // frame decoders
	_ "image/png"
	"os"

	"github.com/okian/swingscope/internal/domain/pose"
	"github.com/okian/swingscope/pkg/logger"
)

// VideoFrame is one sampled frame on disk.
type VideoFrame struct {
	Index int
	T     float64 // ms from the start of the video
	Path  string
}

// Extraction is the set of frames sampled from one video. Close removes any
// files backing it.
type Extraction interface {
	Frames() []VideoFrame
	Close() error
}

// FrameSource samples frames from a video at fps.
type FrameSource interface {
	Extract(ctx context.Context, path string, fps float64) (Extraction, error)
}

// Estimator detects body keypoints in a single image.
type Estimator interface {
	Estimate(ctx context.Context, img image.Image) ([]pose.RawKeypoint, error)
}

// ProgressFunc reports how many frames have been processed out of total.
type ProgressFunc func(done, total int)

// Capture samples path with src and runs est over every frame in order.
// Frames with no detected subject are dropped. ctx is checked between frames.
func Capture(ctx context.Context, src FrameSource, est Estimator, path string, fps float64, progress ProgressFunc) (pose.Sequence, error) {
	if src == nil || est == nil {
		return nil, ErrMissingCollaborator
	}
	log := logger.Named("pipeline")

	ex, err := src.Extract(ctx, path, fps)
	if err != nil {
		return nil, fmt.Errorf("extract frames: %w", err)
	}
	defer func() {
		if cerr := ex.Close(); cerr != nil {
			log.Warn(ctx, "failed to clean up frames", logger.Error(cerr))
		}
	}()

	frames := ex.Frames()
	raw := make([]pose.RawFrame, 0, len(frames))
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("capture cancelled at frame %d: %w", i, err)
		}
		img, err := decode(f.Path)
		if err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", f.Index, err)
		}
		kps, err := est.Estimate(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("estimate frame %d: %w", f.Index, err)
		}
		raw = append(raw, pose.RawFrame{T: f.T, Keypoints: kps})
		if progress != nil {
			progress(i+1, len(frames))
		}
	}

	seq := pose.BuildSequence(raw)
	log.Debug(ctx, "captured keypoints",
		logger.String("video", path),
		logger.Int("sampled", len(frames)),
		logger.Int("kept", len(seq)))
	return seq, nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
