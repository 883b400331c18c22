package lod

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/internal/scheduler"
	"github.com/Faultbox/voxplanet/internal/voxel"
)

// Submitter queues background jobs. *scheduler.Scheduler implements it.
// Submit is called with a node mutex held and must not run the job inline.
type Submitter interface {
	Submit(job scheduler.Job) error
	Discard(kind scheduler.Kind)
}

// Tuning holds the refinement heuristic.
type Tuning struct {
	ErrorExponent  float32
	ErrorThreshold float32
	MaxDepth       int
}

// Shared is the state every node of one tree reaches through its Level:
// the address to node map, the must-generate set and the collaborators
// jobs publish to.
type Shared struct {
	tuning    Tuning
	jobs      Submitter
	pool      *voxel.Pool
	drawables Drawables
	log       *zap.Logger

	mu    sync.RWMutex
	nodes map[octree.Address]*Node

	mustMu sync.Mutex
	must   map[octree.Address]struct{}

	drawn atomic.Int64
}

// NewShared wires the collaborators of one tree.
func NewShared(tuning Tuning, jobs Submitter, pool *voxel.Pool, drawables Drawables, log *zap.Logger) *Shared {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shared{
		tuning:    tuning,
		jobs:      jobs,
		pool:      pool,
		drawables: drawables,
		log:       log,
		nodes:     make(map[octree.Address]*Node),
		must:      make(map[octree.Address]struct{}),
	}
}

// Lookup returns the live node at a.
func (s *Shared) Lookup(a octree.Address) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[a]
	return n, ok
}

// NodeCount returns the number of live nodes.
func (s *Shared) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func (s *Shared) register(n *Node) {
	s.mu.Lock()
	s.nodes[n.address] = n
	s.mu.Unlock()
}

func (s *Shared) unregister(n *Node) {
	s.mu.Lock()
	if s.nodes[n.address] == n {
		delete(s.nodes, n.address)
	}
	s.mu.Unlock()
}

func (s *Shared) each(fn func(*Node)) {
	s.mu.RLock()
	nodes := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, n)
	}
	s.mu.RUnlock()
	for _, n := range nodes {
		fn(n)
	}
}

// MustGenerate reports whether a is in the must-generate set.
func (s *Shared) MustGenerate(a octree.Address) bool {
	s.mustMu.Lock()
	defer s.mustMu.Unlock()
	_, ok := s.must[a]
	return ok
}

// MustGenerateCount returns the size of the must-generate set.
func (s *Shared) MustGenerateCount() int {
	s.mustMu.Lock()
	defer s.mustMu.Unlock()
	return len(s.must)
}

func (s *Shared) markMustGenerate(a octree.Address) {
	s.mustMu.Lock()
	s.must[a] = struct{}{}
	s.mustMu.Unlock()
}

// takeMustGenerate removes a from the set and reports whether it was there.
func (s *Shared) takeMustGenerate(a octree.Address) bool {
	s.mustMu.Lock()
	defer s.mustMu.Unlock()
	_, ok := s.must[a]
	delete(s.must, a)
	return ok
}

// Drawn returns the number of grids currently handed to the drawables sink.
func (s *Shared) Drawn() int { return int(s.drawn.Load()) }
