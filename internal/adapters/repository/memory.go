package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/swingscope/internal/domain/model"
	"github.com/okian/swingscope/pkg/metrics"
)

// MemoryStore keeps analyses in a map and ranks players with a TreapStore.
type MemoryStore struct {
	*TreapStore

	mu       sync.RWMutex
	analyses map[string]model.Analysis
}

// NewMemoryStore constructs an in-memory Store.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	return &MemoryStore{
		TreapStore: NewTreapStore(ctx, opts...),
		analyses:   make(map[string]model.Analysis),
	}
}

// Save implements Results.Save.
func (m *MemoryStore) Save(_ context.Context, a model.Analysis) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("save", float64(time.Since(start).Milliseconds()))
	}()

	if a.ID == "" {
		return ErrEmptyID
	}
	m.mu.Lock()
	m.analyses[a.ID] = a
	m.mu.Unlock()
	return nil
}

// Get implements Results.Get.
func (m *MemoryStore) Get(_ context.Context, id string) (model.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.analyses[id]
	if !ok {
		return model.Analysis{}, ErrAnalysisNotFound
	}
	return a, nil
}
