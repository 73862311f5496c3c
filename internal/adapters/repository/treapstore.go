package repository

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/okian/swingscope/pkg/metrics"
)

// Treap-based, in-memory Ranking implementation.
//
// "less" means ranks earlier, so an in-order traversal yields the
// leaderboard from best to worst.

const defaultPlayerGaugeInterval = 5 * time.Second

// best is a player's best score and the analysis that produced it.
type best struct {
	score      float64
	analysisID string
}

type node struct {
	id    string
	score float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) appears before (bScore, bID).
func less(aScore float64, aID string, bScore float64, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// priority hashes the player id so the tree shape does not depend on the
// order scores arrive in.
func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, id string, score float64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: priority(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countAbove returns the number of nodes with a score strictly greater than score.
func countAbove(n *node, score float64) int {
	count := 0
	for n != nil {
		if n.score > score {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, byID map[string]best, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, byID, out)
	if len(*out) < limit {
		*out = append(*out, Entry{PlayerID: n.id, Score: n.score, AnalysisID: byID[n.id].analysisID})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, byID, out)
	}
}

// TreapStore ranks players in memory with O(log n) updates and rank queries.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]best

	playerGaugeInterval time.Duration
	wg                  sync.WaitGroup
	stopChan            chan struct{}
	stopOnce            sync.Once
}

// NewTreapStore constructs a treap store and starts the ranked-players gauge refresher,
// which runs until ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                make(map[string]best),
		playerGaugeInterval: defaultPlayerGaugeInterval,
		stopChan:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateTotalPlayers(0)
	s.startPlayerGauge(ctx)
	return s
}

func (s *TreapStore) startPlayerGauge(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.playerGaugeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateTotalPlayers(s.Count(ctx))
			}
		}
	}()
}

// Close stops the metrics updater.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// UpdateBest implements Ranking.UpdateBest in O(log n) expected time.
func (s *TreapStore) UpdateBest(_ context.Context, playerID string, score float64, analysisID string) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("update_best", float64(time.Since(start).Milliseconds()))
	}()

	if playerID == "" {
		return false, ErrEmptyID
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return false, ErrInvalidScore
	}

	s.mu.Lock()
	old, ok := s.byID[playerID]
	if ok {
		if score <= old.score {
			s.mu.Unlock()
			return false, nil
		}
		s.root = deleteNode(s.root, playerID, old.score)
	}
	s.byID[playerID] = best{score: score, analysisID: analysisID}
	s.root = insert(s.root, playerID, score)
	count := len(s.byID)
	s.mu.Unlock()

	if !ok {
		metrics.UpdateTotalPlayers(count)
	}
	return true, nil
}

// Rank returns the current rank and score for a player in O(log n).
func (s *TreapStore) Rank(_ context.Context, playerID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("rank", float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byID[playerID]
	if !ok {
		metrics.RecordError("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:       countAbove(s.root, b.score) + 1,
		PlayerID:   playerID,
		Score:      b.score,
		AnalysisID: b.analysisID,
	}, nil
}

// TopN returns the top n entries in rank order.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("top_n", float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordError("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	assignRanks(out)
	return out, nil
}

// Count returns the number of ranked players.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
