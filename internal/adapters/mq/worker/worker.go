// Package worker drains the submission queue, analyses each swing and
// records the outcome.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/swingscope/internal/adapters/mq/queue"
	"github.com/okian/swingscope/internal/domain/analysis"
	"github.com/okian/swingscope/internal/domain/model"
	"github.com/okian/swingscope/internal/domain/scoring"
	"github.com/okian/swingscope/internal/domain/segment"
	"github.com/okian/swingscope/pkg/logger"
	"github.com/okian/swingscope/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Recorder persists finished analyses and player bests.
type Recorder interface {
	Save(ctx context.Context, a model.Analysis) error
	UpdateBest(ctx context.Context, playerID string, score float64, analysisID string) (bool, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining the queue.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	scorer    scoring.Scorer
	recorder  Recorder
	segmenter *segment.Segmenter
	name      string

	shutdown chan struct{}
	done     chan struct{}
	stopped  atomic.Bool

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, scorer scoring.Scorer, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		scorer:    scorer,
		recorder:  recorder,
		segmenter: segment.New(),
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Warn(ctx, "analysis failed",
					logger.String("analysis_id", job.AnalysisID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	if w.stopped.CompareAndSwap(false, true) {
		close(w.shutdown)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process analyses one submission and records the result. Analysis failures
// are stored as failed analyses; only recorder failures leave no trace.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	report, err := analysis.Analyze(ctx, job.Sequence, w.scorer,
		analysis.WithSegmenter(w.segmenter),
		analysis.WithMetricOverrides(job.Overrides),
		analysis.WithAnalysisID(job.AnalysisID),
	)
	now := time.Now()
	a := model.Analysis{
		ID:          job.AnalysisID,
		PlayerID:    job.PlayerID,
		SubmittedAt: job.SubmittedAt,
		CompletedAt: &now,
	}

	if err != nil {
		a.Status = model.StatusFailed
		a.Error = err.Error()
		metrics.RecordAnalysisFailed(failureReason(err))
		if serr := w.recorder.Save(ctx, a); serr != nil {
			metrics.RecordError("worker", "save")
			return errors.Join(err, fmt.Errorf("save failed analysis: %w", serr))
		}
		return err
	}

	a.Status = model.StatusDone
	a.Report = &report
	for _, p := range report.Events.Detected() {
		metrics.RecordEventDetected(string(p))
	}
	if report.Quality == segment.LowConfidence {
		metrics.RecordLowConfidence()
	}

	if err := w.recorder.Save(ctx, a); err != nil {
		metrics.RecordError("worker", "save")
		return fmt.Errorf("save analysis %s: %w", a.ID, err)
	}

	updated, err := w.recorder.UpdateBest(ctx, job.PlayerID, float64(report.Score.Score), job.AnalysisID)
	if err != nil {
		metrics.RecordError("worker", "leaderboard")
		return fmt.Errorf("leaderboard update for %s: %w", job.PlayerID, err)
	}
	if updated {
		metrics.RecordLeaderboardUpdate()
	}

	latency := time.Since(start)
	if !job.SubmittedAt.IsZero() {
		latency = now.Sub(job.SubmittedAt)
	}
	metrics.RecordAnalysisCompleted(float64(latency.Milliseconds()), report.Score.Score)
	w.logger.Debug(ctx, "analysis done",
		logger.String("analysis_id", job.AnalysisID),
		logger.Int("score", report.Score.Score),
		logger.Int("events", len(report.Events.Detected())),
	)
	return nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, analysis.ErrNoSwingDetected):
		return "no_swing"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "scoring"
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	started atomic.Bool
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below 1 uses one
// worker per CPU. opts apply to every worker.
func NewPool(workerCount int, q Queue, scorer scoring.Scorer, recorder Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, scorer, recorder, wopts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActive(len(p.workers))
}

// Shutdown closes the queue and lets workers drain it. Workers still busy
// when ctx or the pool timeout expires are stopped without draining.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	if !p.started.Load() {
		return nil
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			_ = w.Shutdown(context.Background())
		}
	}
	metrics.UpdateWorkerActive(0)
	if timedOut {
		return fmt.Errorf("pool drain: %w", drainCtx.Err())
	}
	return nil
}
