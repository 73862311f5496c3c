// Package service wires the queue, workers, stores and scorer behind the
// operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/swingscope/internal/adapters/mq/queue"
	"github.com/okian/swingscope/internal/adapters/mq/worker"
	"github.com/okian/swingscope/internal/adapters/repository"
	"github.com/okian/swingscope/internal/domain/dedupe"
	"github.com/okian/swingscope/internal/domain/model"
	"github.com/okian/swingscope/internal/domain/scoring"
	"github.com/okian/swingscope/internal/domain/segment"
	"github.com/okian/swingscope/internal/domain/types"
	"github.com/okian/swingscope/pkg/logger"
	"github.com/okian/swingscope/pkg/metrics"
)

const (
	defaultQueueSize       = 10_000
	defaultDedupeSize      = 100_000
	defaultMaxFrames       = 3_000
	defaultSmoothingWindow = 5
)

// Service implements the API dependencies for swing analysis.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	scorer  *scoring.RubricScorer
	pool    *worker.Pool

	workerCount     int
	queueSize       int
	dedupeSize      int
	maxFrames       int
	smoothingWindow int
	rubric          scoring.Rubric
	ownsStore       bool

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued submissions.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the number of analysis ids remembered for idempotency.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxFrames caps the frames accepted per submission.
func WithMaxFrames(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxFrames = n
		}
	}
}

// WithSmoothingWindow sets the moving-average window used by segmentation.
func WithSmoothingWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.smoothingWindow = n
		}
	}
}

// WithRubric replaces the default scoring rubric.
func WithRubric(r scoring.Rubric) Option {
	return func(s *Service) {
		if len(r) > 0 {
			s.rubric = r
		}
	}
}

// WithStore sets the persistence backend. The caller keeps ownership and
// must close it after Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		maxFrames:       defaultMaxFrames,
		smoothingWindow: defaultSmoothingWindow,
		rubric:          scoring.DefaultRubric(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scorer = scoring.NewRubricScorer(scoring.WithRubric(s.rubric))
	return s
}

// Start builds the components and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if err := s.rubric.Validate(); err != nil {
		return fmt.Errorf("rubric: %w", err)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.ownsStore = true
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.scorer, s.store,
		worker.WithSegmenter(segment.New(segment.WithSmoothingWindow(s.smoothingWindow))),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "swing service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("rubricMetrics", len(s.rubric)),
	)
	return nil
}

// Stop drains queued analyses and stops the workers.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping swing service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if s.ownsStore {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "swing service stopped")
}

// Submit validates a swing and queues it for analysis. A missing analysis
// id is generated. Resubmitting a known id is acknowledged as a duplicate.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (model.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.Receipt{}, model.ErrNotStarted
	}
	if strings.TrimSpace(sub.PlayerID) == "" {
		return model.Receipt{}, fmt.Errorf("%w: missing player_id", model.ErrInvalidSubmission)
	}
	if len(sub.Sequence) == 0 {
		return model.Receipt{}, fmt.Errorf("%w: no frame contains a recognised keypoint", model.ErrInvalidSubmission)
	}
	if len(sub.Sequence) > s.maxFrames {
		return model.Receipt{}, fmt.Errorf("%w: %d > %d", model.ErrTooManyFrames, len(sub.Sequence), s.maxFrames)
	}
	if sub.AnalysisID == "" {
		sub.AnalysisID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}

	if s.deduper.SeenAndRecord(ctx, sub.AnalysisID) {
		metrics.RecordAnalysisDuplicate()
		return model.Receipt{AnalysisID: sub.AnalysisID, Duplicate: true}, nil
	}

	pending := model.Analysis{
		ID:          sub.AnalysisID,
		PlayerID:    sub.PlayerID,
		Status:      model.StatusPending,
		SubmittedAt: sub.SubmittedAt,
	}
	if err := s.store.Save(ctx, pending); err != nil {
		s.deduper.Unrecord(ctx, sub.AnalysisID)
		return model.Receipt{}, fmt.Errorf("save pending analysis: %w", err)
	}

	if !s.queue.Enqueue(ctx, sub) {
		s.deduper.Unrecord(ctx, sub.AnalysisID)
		pending.Status = model.StatusFailed
		pending.Error = model.ErrBackpressure.Error()
		if err := s.store.Save(ctx, pending); err != nil {
			metrics.RecordError("service", "save")
			s.logger.Error(ctx, "failed to mark rejected analysis",
				logger.String("analysis_id", sub.AnalysisID),
				logger.Error(err),
			)
		}
		return model.Receipt{}, model.ErrBackpressure
	}

	metrics.RecordAnalysisSubmitted()
	s.logger.Debug(ctx, "analysis queued",
		logger.String("analysis_id", sub.AnalysisID),
		logger.String("player_id", sub.PlayerID),
		logger.Int("frames", len(sub.Sequence)),
	)
	return model.Receipt{AnalysisID: sub.AnalysisID}, nil
}

// Get returns the stored state of an analysis.
func (s *Service) Get(ctx context.Context, id string) (model.Analysis, error) {
	store, err := s.readStore()
	if err != nil {
		return model.Analysis{}, err
	}
	a, err := store.Get(ctx, id)
	if errors.Is(err, repository.ErrAnalysisNotFound) {
		return model.Analysis{}, fmt.Errorf("analysis %s: %w", id, model.ErrNotFound)
	}
	return a, err
}

// Score scores a metric map synchronously against the configured rubric.
func (s *Service) Score(ctx context.Context, values map[string]float64) (scoring.Result, error) {
	return s.scorer.Score(ctx, scoring.Input{Metrics: values})
}

// Rubric returns the configured rubric.
func (s *Service) Rubric() scoring.Rubric {
	out := make(scoring.Rubric, len(s.rubric))
	copy(out, s.rubric)
	return out
}

// TopN returns the top n players by best composite score.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	store, err := s.readStore()
	if err != nil {
		return nil, err
	}
	entries, err := store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = toEntry(e)
	}
	return out, nil
}

// Rank returns the rank and best score for a player.
func (s *Service) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	store, err := s.readStore()
	if err != nil {
		return types.Entry{}, err
	}
	e, err := store.Rank(ctx, playerID)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Entry{}, fmt.Errorf("player %s: %w", playerID, model.ErrNotFound)
	}
	if err != nil {
		return types.Entry{}, err
	}
	return toEntry(e), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"maxFrames":   s.maxFrames,
	}
	if s.started {
		players := s.store.Count(ctx)
		stats["queueLength"] = s.queue.Len(ctx)
		stats["totalPlayers"] = players
		stats["dedupeEntries"] = s.deduper.Size()
		metrics.UpdateTotalPlayers(players)
	}
	return stats
}

func (s *Service) readStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, model.ErrNotStarted
	}
	return s.store, nil
}

func toEntry(e repository.Entry) types.Entry {
	return types.Entry{Rank: e.Rank, PlayerID: e.PlayerID, Score: e.Score, AnalysisID: e.AnalysisID}
}
