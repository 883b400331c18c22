package lod

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/internal/scheduler"
	"github.com/Faultbox/voxplanet/internal/voxel"
	"github.com/Faultbox/voxplanet/pkg/math"
)

func newTestTree(t *testing.T, q Submitter) (*Node, *sink) {
	t.Helper()
	d := newSink(t)
	spec := voxel.Spec{Resolution: 16, VoxelSize: 0.2, Noise: planet()}
	shared := NewShared(testSettings().Tuning, q, voxel.NewPool(spec.Resolution), d, zap.NewNop())
	root := newNode(octree.Root, NewLevel(spec, shared))
	shared.register(root)
	return root, d
}

func child(n *Node, octant int) *Node {
	return n.Children()[octant]
}

func TestLevelFinerIsCached(t *testing.T) {
	l := NewLevel(voxel.Spec{Resolution: 16, VoxelSize: 0.2}, nil)

	var wg sync.WaitGroup
	got := make([]*Level, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = l.FinerLevel()
		}(i)
	}
	wg.Wait()
	for _, f := range got {
		assert.Same(t, got[0], f)
	}
	assert.Equal(t, 1, got[0].Depth)
	assert.InDelta(t, 0.1, got[0].VoxelSize, 1e-7)

	c := l.CoarserLevel()
	assert.NotSame(t, c, l.CoarserLevel())
	assert.Equal(t, 0, c.Depth)
	assert.InDelta(t, 0.4, c.VoxelSize, 1e-7)
}

func TestLevelCenter(t *testing.T) {
	l := NewLevel(voxel.Spec{Resolution: 10, VoxelSize: 1}, nil)
	assert.Equal(t, math.Vec3{}, l.Center(octree.Root))

	f := l.FinerLevel()
	assert.Equal(t, math.Vec3{X: 2, Y: -2, Z: -2}, f.Center(octree.Root.Child(1)))
	assert.Equal(t, math.Vec3{X: 2, Y: 2, Z: 2}, f.Center(octree.Root.Child(7)))

	// Children tile their parent exactly.
	ff := f.FinerLevel()
	a := octree.Root.Child(0).Child(7)
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: -1}, ff.Center(a))
}

func TestSufficientHeuristic(t *testing.T) {
	root, _ := newTestTree(t, &queue{})
	tests := []struct {
		name string
		pos  math.Vec3
		want bool
	}{
		{"far", math.Vec3{Z: 5000}, true},
		{"near", math.Vec3{Z: 3}, false},
		{"inside", math.Vec3{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.pos, math.QuatIdentity(), 1.0471976)
			assert.Equal(t, tt.want, root.sufficient(cam))
		})
	}

	deep := newNode(octree.Address{Level: 3}, root.level.FinerLevel().FinerLevel().FinerLevel())
	assert.True(t, deep.sufficient(NewCamera(math.Vec3{}, math.QuatIdentity(), 1)), "max depth is always sufficient")
}

func TestNewCameraTranslation(t *testing.T) {
	cam := NewCamera(math.Vec3{X: 1, Y: 2, Z: 3}, math.QuatIdentity(), 1)
	assert.Equal(t, math.Vec3{X: -1, Y: -2, Z: -3}, cam.Translation)
}

func TestHierarchyHintMarksChildrenEmpty(t *testing.T) {
	root, _ := newTestTree(t, &queue{})
	root.generateHierarchy(0b0000_0001)

	require.Len(t, root.Children(), 8)
	assert.False(t, child(root, 0).grid.isEmpty)
	for o := 1; o < 8; o++ {
		c := child(root, o)
		assert.True(t, c.grid.isEmpty, "octant %d", o)
		assert.True(t, c.hier.isEmpty, "octant %d", o)
		assert.True(t, c.effectivelyEmpty())
		assert.False(t, c.grid.shouldGenerate())
		_, ok := root.level.shared.Lookup(c.address)
		assert.True(t, ok)
	}
	assert.False(t, root.hier.isEmpty)
	assert.Equal(t, HasBeenGenerated, root.hier.status)
}

func TestChildrenAssignedTwicePanics(t *testing.T) {
	root, _ := newTestTree(t, &queue{})
	root.generateHierarchy(0xff)
	assert.Panics(t, func() { root.generateHierarchy(0xff) })
}

func TestSiblingLatch(t *testing.T) {
	root, _ := newTestTree(t, &queue{})
	root.generateHierarchy(0b0000_0001)
	left, right := child(root, 0), child(root, 1)
	require.True(t, right.effectivelyEmpty())

	var sides voxel.Sides
	sides[octree.PosX] = true
	left.MarkMustGenerateSurroundings(sides)

	assert.True(t, right.grid.ignoreIsEmpty)
	assert.False(t, right.effectivelyEmpty())
	assert.True(t, right.grid.shouldGenerate())
}

func TestLatchThroughMissingNodes(t *testing.T) {
	root, _ := newTestTree(t, &queue{})
	shared := root.level.shared
	root.generateHierarchy(0b0000_0001)
	left, right := child(root, 0), child(root, 1)
	left.generateHierarchy(0xff)

	// Octant 1 of the left child borders the right child, which has no
	// children yet.
	var sides voxel.Sides
	sides[octree.PosX] = true
	child(left, 1).MarkMustGenerateSurroundings(sides)

	want := octree.Address{X: 2, Level: 2}
	assert.True(t, shared.MustGenerate(want))
	assert.True(t, right.grid.ignoreIsEmpty)

	// The right child's hint says nothing is there, but the marked child
	// still comes up latched.
	right.generateHierarchy(0)
	assert.False(t, shared.MustGenerate(want))
	latched := child(right, 0)
	assert.Equal(t, want, latched.address)
	assert.True(t, latched.grid.ignoreIsEmpty)
	assert.False(t, latched.grid.isEmpty)
	assert.False(t, right.hier.isEmpty)
	for o := 1; o < 8; o++ {
		assert.True(t, child(right, o).grid.isEmpty)
	}
}

func TestLatchReachesEmptyAncestors(t *testing.T) {
	root, _ := newTestTree(t, &queue{})
	root.generateHierarchy(0)
	require.True(t, root.hier.isEmpty)
	require.True(t, root.effectivelyEmpty())

	var sides voxel.Sides
	sides[octree.PosX] = true
	sides[octree.NegX] = true
	child(root, 0).MarkMustGenerateSurroundings(sides)

	assert.True(t, child(root, 1).grid.ignoreIsEmpty)
	assert.True(t, root.grid.ignoreIsEmpty)
	assert.False(t, root.effectivelyEmpty())
	assert.Zero(t, root.level.shared.MustGenerateCount(), "-x leaves the root and is ignored")
}

func TestLatchStopsAtNonEmptyAncestor(t *testing.T) {
	root, _ := newTestTree(t, &queue{})
	root.generateHierarchy(0b0000_0001)
	right := child(root, 1)
	require.True(t, right.effectivelyEmpty())
	right.generateHierarchy(0)

	var sides voxel.Sides
	sides[octree.PosX] = true
	child(right, 0).MarkMustGenerateSurroundings(sides)

	assert.True(t, child(right, 1).grid.ignoreIsEmpty)
	assert.True(t, right.grid.ignoreIsEmpty, "empty parent found through the address map")
	assert.False(t, right.effectivelyEmpty())
	assert.False(t, root.grid.ignoreIsEmpty, "root has geometry, the walk stops below it")
}

func TestHollowDuringGenerationDiscards(t *testing.T) {
	q := &queue{}
	root, d := newTestTree(t, q)

	root.mu.Lock()
	root.startGridJob()
	root.mu.Unlock()
	require.Equal(t, 1, q.len())
	assert.Panics(t, func() { root.startGridJob() }, "second start while generating")

	root.MakeHollow()
	q.drain()

	assert.Zero(t, d.count())
	assert.Equal(t, 1, q.discarded)
	assert.False(t, root.grid.isBeingGenerated)
	assert.True(t, root.grid.shouldGenerate())
}

func TestDisposeDuringHierarchyDiscards(t *testing.T) {
	q := &queue{}
	root, _ := newTestTree(t, q)

	root.mu.Lock()
	root.startHierarchyJob()
	root.mu.Unlock()
	root.Dispose()
	q.drain()

	assert.Nil(t, root.Children())
	assert.Equal(t, 1, q.discarded)
	assert.Zero(t, root.level.shared.NodeCount())
}

func TestGridPublishesAndHollows(t *testing.T) {
	q := &queue{}
	root, d := newTestTree(t, q)

	root.mu.Lock()
	root.startGridJob()
	root.mu.Unlock()
	q.drain()

	require.True(t, root.GridVisible())
	assert.Equal(t, 1, d.count())
	assert.NotNil(t, root.grid.compressed)

	root.MakeHollow()
	root.MakeHollow()
	assert.Zero(t, d.count())
	assert.Equal(t, 1, d.removes)

	c, r := root.BoundingCircle()
	assert.Equal(t, math.Vec3{}, c)
	assert.InDelta(t, 14*0.2*0.8660254, r, 1e-5)
}

type panicking struct{}

func (panicking) Density(math.Vec3) float32 { panic("density exploded") }

func TestFailedJobIsRetryable(t *testing.T) {
	sched, err := scheduler.New(scheduler.Options{Workers: 1})
	require.NoError(t, err)
	defer sched.Close()

	d := newSink(t)
	spec := voxel.Spec{Resolution: 8, VoxelSize: 0.5, Noise: panicking{}}
	shared := NewShared(testSettings().Tuning, sched, voxel.NewPool(8), d, zap.NewNop())
	root := newNode(octree.Root, NewLevel(spec, shared))

	root.mu.Lock()
	root.startGridJob()
	root.mu.Unlock()
	sched.Wait()

	root.mu.Lock()
	defer root.mu.Unlock()
	assert.False(t, root.grid.isBeingGenerated)
	assert.False(t, root.grid.hasBeenGenerated)
	assert.True(t, root.grid.shouldGenerate())
	assert.Zero(t, d.count())
}
