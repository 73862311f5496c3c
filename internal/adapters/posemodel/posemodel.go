// Package posemodel runs a MoveNet-style single-person pose model through
// ONNX Runtime. Each Handle owns its own session and serves one caller at a
// time.
package posemodel

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"sync/atomic"

	"github.com/nfnt/resize"
	"github.com/okian/swingscope/internal/domain/pose"
	"github.com/okian/swingscope/pkg/logger"
	ort "github.com/yalue/onnxruntime_go"
)

// Default model layout.
const (
	defaultInputSize  = 192
	defaultInputName  = "input"
	defaultOutputName = "output_0"
	defaultMinScore   = 0.2
	valuesPerPoint    = 3 // y, x, score
)

// ortEnv tracks handles sharing the process-wide ONNX environment.
var ortEnv struct {
	mu   sync.Mutex
	refs int
}

func acquireRuntime(lib string) error {
	ortEnv.mu.Lock()
	defer ortEnv.mu.Unlock()
	if ortEnv.refs == 0 {
		if lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}
	ortEnv.refs++
	return nil
}

func releaseRuntime() error {
	ortEnv.mu.Lock()
	defer ortEnv.mu.Unlock()
	if ortEnv.refs == 0 {
		return nil
	}
	ortEnv.refs--
	if ortEnv.refs == 0 {
		return ort.DestroyEnvironment()
	}
	return nil
}

// Option configures a Handle.
type Option func(*Handle)

// WithSharedLibrary sets the onnxruntime shared library path.
func WithSharedLibrary(path string) Option {
	return func(h *Handle) {
		h.sharedLib = path
	}
}

// WithInputSize sets the square model input edge in pixels.
func WithInputSize(size int) Option {
	return func(h *Handle) {
		if size > 0 {
			h.size = size
		}
	}
}

// WithTensorNames sets the model input and output names.
func WithTensorNames(input, output string) Option {
	return func(h *Handle) {
		if input != "" {
			h.inputName = input
		}
		if output != "" {
			h.outputName = output
		}
	}
}

// WithMinScore sets the best-keypoint score below which no subject is reported.
func WithMinScore(score float64) Option {
	return func(h *Handle) {
		h.minScore = score
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handle) {
		if l != nil {
			h.logger = l
		}
	}
}

// Handle is an open pose model. It implements pipeline.Estimator.
type Handle struct {
	logger     logger.Logger
	modelPath  string
	sharedLib  string
	size       int
	inputName  string
	outputName string
	minScore   float64

	session *ort.DynamicAdvancedSession
	busy    atomic.Bool
	closed  atomic.Bool
}

// Open loads the model at modelPath.
func Open(modelPath string, opts ...Option) (*Handle, error) {
	h := &Handle{
		logger:     logger.Named("posemodel"),
		modelPath:  modelPath,
		size:       defaultInputSize,
		inputName:  defaultInputName,
		outputName: defaultOutputName,
		minScore:   defaultMinScore,
	}
	for _, opt := range opts {
		opt(h)
	}

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
	}
	if err := acquireRuntime(h.sharedLib); err != nil {
		return nil, err
	}

	sess, err := ort.NewDynamicAdvancedSession(modelPath, []string{h.inputName}, []string{h.outputName}, nil)
	if err != nil {
		_ = releaseRuntime()
		return nil, fmt.Errorf("create pose session: %w", err)
	}
	h.session = sess

	h.logger.Info(context.Background(), "pose model loaded",
		logger.String("model", modelPath),
		logger.Int("input_size", h.size))
	return h, nil
}

// Estimate detects keypoints in img. Concurrent calls on one Handle fail
// with ErrHandleBusy.
func (h *Handle) Estimate(ctx context.Context, img image.Image) ([]pose.RawKeypoint, error) {
	if !h.busy.CompareAndSwap(false, true) {
		return nil, ErrHandleBusy
	}
	defer h.busy.Store(false)

	if h.closed.Load() {
		return nil, ErrHandleClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	in, err := ort.NewTensor(ort.NewShape(1, int64(h.size), int64(h.size), 3), preprocess(img, h.size))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1, int64(pose.LandmarkCount), valuesPerPoint))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := h.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("pose inference failed: %w", err)
	}
	return decode(out.GetData(), img.Bounds(), h.minScore), nil
}

// Close releases the session. It fails with ErrHandleBusy while an
// estimate is running.
func (h *Handle) Close() error {
	if !h.busy.CompareAndSwap(false, true) {
		return ErrHandleBusy
	}
	defer h.busy.Store(false)
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	h.logger.Debug(context.Background(), "closing pose model", logger.String("model", h.modelPath))
	var err error
	if h.session != nil {
		err = h.session.Destroy()
	}
	if rerr := releaseRuntime(); err == nil {
		err = rerr
	}
	return err
}

// preprocess resizes img to size x size and packs it as NHWC int32 RGB.
func preprocess(img image.Image, size int) []int32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear)
	b := resized.Bounds()
	data := make([]int32, 0, size*size*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := resized.At(x, y).RGBA()
			data = append(data, int32(r>>8), int32(g>>8), int32(bl>>8))
		}
	}
	return data
}

// decode maps normalised (y, x, score) triples back to pixel space. When no
// keypoint reaches minScore the frame has no subject and nil is returned.
func decode(data []float32, bounds image.Rectangle, minScore float64) []pose.RawKeypoint {
	if len(data) < pose.LandmarkCount*valuesPerPoint {
		return nil
	}
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	best := 0.0
	kps := make([]pose.RawKeypoint, 0, pose.LandmarkCount)
	for _, l := range pose.Landmarks() {
		o := int(l) * valuesPerPoint
		score := float64(data[o+2])
		best = max(best, score)
		kps = append(kps, pose.RawKeypoint{
			Name:  l.String(),
			X:     float64(bounds.Min.X) + float64(data[o+1])*w,
			Y:     float64(bounds.Min.Y) + float64(data[o])*h,
			Score: &score,
		})
	}
	if best < minScore {
		return nil
	}
	return kps
}
