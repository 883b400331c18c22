package lod

import (
	"sync"
	"testing"

	"github.com/Faultbox/voxplanet/internal/noise"
	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/internal/scheduler"
	"github.com/Faultbox/voxplanet/internal/voxel"
	"github.com/Faultbox/voxplanet/pkg/math"
)

// queue holds jobs until the test runs them.
type queue struct {
	mu        sync.Mutex
	jobs      []scheduler.Job
	discarded int
}

func (q *queue) Submit(job scheduler.Job) error {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
	return nil
}

func (q *queue) Discard(scheduler.Kind) {
	q.mu.Lock()
	q.discarded++
	q.mu.Unlock()
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// drain runs queued jobs, including ones they queue, until none are left.
func (q *queue) drain() int {
	ran := 0
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return ran
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()
		job.Run()
		ran++
	}
}

// sink records drawables and fails the test on unpaired calls.
type sink struct {
	t       *testing.T
	mu      sync.Mutex
	live    map[octree.Address]*voxel.Mesh
	adds    int
	removes int
}

func newSink(t *testing.T) *sink {
	return &sink{t: t, live: make(map[octree.Address]*voxel.Mesh)}
}

func (s *sink) MakeGridDrawable(a octree.Address, m *voxel.Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[a]; ok {
		s.t.Errorf("%v added twice", a)
	}
	if m == nil || m.TriangleCount() == 0 {
		s.t.Errorf("%v added without triangles", a)
	}
	s.live[a] = m
	s.adds++
}

func (s *sink) RemoveDrawableGrid(a octree.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[a]; !ok {
		s.t.Errorf("%v removed without add", a)
	}
	delete(s.live, a)
	s.removes++
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *sink) addresses() []octree.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]octree.Address, 0, len(s.live))
	for a := range s.live {
		out = append(out, a)
	}
	return out
}

type cullAll struct{}

func (cullAll) Intersects(math.Vec3, float32) bool { return false }

type keepAll struct{}

func (keepAll) Intersects(math.Vec3, float32) bool { return true }

func planet() noise.Generator {
	return noise.NewTurbulence(noise.Params{Seed: 3, Radius: 1, NoiseWeight: 3, Frequency: 1, Octaves: 8})
}

func testSettings() Settings {
	return Settings{
		BlockResolution:    16,
		VoxelSize:          0.2,
		RootSearchAttempts: 8,
		Workers:            2,
		Tuning: Tuning{
			ErrorExponent:  1.2,
			ErrorThreshold: 0.0015,
			MaxDepth:       3,
		},
	}
}

func lookingAtOrigin() Camera {
	return NewCamera(math.Vec3{Z: 3}, math.QuatIdentity(), 1.0471976)
}

// converge alternates traversal and job execution until nothing is queued.
func converge(t *testing.T, sys *System, q *queue, f Frustum, cam Camera) {
	t.Helper()
	for i := 0; i < 16; i++ {
		sys.Update(f, cam)
		if q.drain() == 0 {
			return
		}
	}
	t.Fatalf("tree did not converge, %d jobs queued", q.len())
}
