package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/swingscope/internal/adapters/mq/queue"
	"github.com/okian/swingscope/internal/adapters/mq/worker"
	"github.com/okian/swingscope/internal/domain/model"
	"github.com/okian/swingscope/internal/domain/scoring"
	"github.com/okian/swingscope/internal/domain/segment"
	"github.com/okian/swingscope/internal/synth"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	close(mq.jobs)
	return nil
}

type mockRecorder struct {
	mu        sync.Mutex
	saved     map[string]model.Analysis
	best      map[string]float64
	saveErr   error
	updateErr error
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{saved: make(map[string]model.Analysis), best: make(map[string]float64)}
}

func (r *mockRecorder) Save(_ context.Context, a model.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved[a.ID] = a
	return nil
}

func (r *mockRecorder) UpdateBest(_ context.Context, playerID string, score float64, _ string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return false, r.updateErr
	}
	if old, ok := r.best[playerID]; ok && score <= old {
		return false, nil
	}
	r.best[playerID] = score
	return true, nil
}

func (r *mockRecorder) get(id string) (model.Analysis, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.saved[id]
	return a, ok
}

type failingScorer struct{}

func (failingScorer) Score(context.Context, scoring.Input) (scoring.Result, error) {
	return scoring.Result{}, errors.New("rubric unavailable")
}

func swingJob(id, player string) queue.Job {
	return queue.Job{
		AnalysisID:  id,
		PlayerID:    player,
		Sequence:    synth.Swing(synth.DefaultParams()),
		SubmittedAt: time.Now(),
	}
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool draining a queue of swings", t, func() {
		ctx := context.Background()
		q := newMockQueue()
		rec := newMockRecorder()
		pool := worker.NewPool(2, q, scoring.NewRubricScorer(), rec,
			worker.WithSegmenter(segment.New(segment.WithSmoothingWindow(5))))
		convey.So(pool.Size(), convey.ShouldEqual, 2)

		for i := 0; i < 4; i++ {
			q.jobs <- swingJob(fmt.Sprintf("a%d", i), "p1")
		}
		q.jobs <- queue.Job{AnalysisID: "empty", PlayerID: "p2"}

		pool.Start(ctx)
		convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

		convey.Convey("Then every swing is stored as done", func() {
			for i := 0; i < 4; i++ {
				a, ok := rec.get(fmt.Sprintf("a%d", i))
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(a.Status, convey.ShouldEqual, model.StatusDone)
				convey.So(a.Report, convey.ShouldNotBeNil)
				convey.So(a.Report.Events.Detected(), convey.ShouldHaveLength, 6)
				convey.So(a.CompletedAt, convey.ShouldNotBeNil)
			}
		})

		convey.Convey("Then the player best is recorded", func() {
			a, _ := rec.get("a0")
			convey.So(rec.best["p1"], convey.ShouldEqual, float64(a.Score()))
		})

		convey.Convey("Then an empty sequence is stored as failed", func() {
			a, ok := rec.get("empty")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(a.Status, convey.ShouldEqual, model.StatusFailed)
			convey.So(a.Error, convey.ShouldContainSubstring, "no swing")
			_, ranked := rec.best["p2"]
			convey.So(ranked, convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given a scorer that fails", t, func() {
		ctx := context.Background()
		q := newMockQueue()
		rec := newMockRecorder()
		pool := worker.NewPool(1, q, failingScorer{}, rec)

		q.jobs <- swingJob("a1", "p1")
		pool.Start(ctx)
		convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

		a, ok := rec.get("a1")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(a.Status, convey.ShouldEqual, model.StatusFailed)
		convey.So(a.Error, convey.ShouldContainSubstring, "rubric unavailable")
	})

	convey.Convey("Given a recorder that cannot rank", t, func() {
		ctx := context.Background()
		q := newMockQueue()
		rec := newMockRecorder()
		rec.updateErr = errors.New("db down")
		pool := worker.NewPool(1, q, scoring.NewRubricScorer(), rec)

		q.jobs <- swingJob("a1", "p1")
		q.jobs <- swingJob("a2", "p1")
		pool.Start(ctx)
		convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

		convey.Convey("Then the worker keeps going", func() {
			_, ok := rec.get("a2")
			convey.So(ok, convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a pool that was never started", t, func() {
		q := newMockQueue()
		pool := worker.NewPool(0, q, scoring.NewRubricScorer(), newMockRecorder())
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
	})
}

func TestWorkerShutdown(t *testing.T) {
	convey.Convey("Given a running worker on an idle queue", t, func() {
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, scoring.NewRubricScorer(), newMockRecorder(), worker.WithName("w-test"))
		go w.Run(context.Background())

		convey.Convey("When shutdown is requested", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a worker that never ran", t, func() {
		w := worker.NewInMemoryWorker(newMockQueue(), scoring.NewRubricScorer(), newMockRecorder())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		convey.So(w.Shutdown(ctx), convey.ShouldNotBeNil)
	})
}
