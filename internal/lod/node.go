// Package lod maintains the adaptive octree of voxel blocks around the
// camera. The traversal runs on one goroutine; grid and hierarchy
// generation run as scheduler jobs and publish under the node mutex.
package lod

import (
	gomath "math"
	"sync"

	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/pkg/math"
)

// Status tracks hierarchy generation.
type Status int

const (
	NotGenerated Status = iota
	Generating
	HasBeenGenerated
)

// Grid is the block mesh owned by a node.
type Grid struct {
	compressed []byte // sign bitset, kept across hollow cycles
	subBlocks  uint8  // octants that contain used points

	isBeingGenerated bool
	hasBeenGenerated bool
	isHollow         bool
	isEmpty          bool
	ignoreIsEmpty    bool // must-generate latch

	// epoch changes whenever the grid is hollowed, so a job started
	// before that can tell its result is stale.
	epoch uint64
}

func (g *Grid) visible() bool {
	return g.hasBeenGenerated && !g.isHollow && !g.isEmpty
}

func (g *Grid) shouldGenerate() bool {
	if g.isBeingGenerated || g.visible() {
		return false
	}
	if g.hasBeenGenerated && g.isEmpty {
		return false
	}
	return !g.isEmpty || g.ignoreIsEmpty
}

// ready reports whether the grid can stand in for its children.
func (g *Grid) ready() bool {
	return g.visible() || (g.isEmpty && !g.shouldGenerate() && !g.isBeingGenerated)
}

// Hierarchy is the set of eight children of a node.
type Hierarchy struct {
	status   Status
	isHollow bool
	isEmpty  bool
	children *[8]*Node
}

func (h *Hierarchy) visible() bool {
	return h.status == HasBeenGenerated && !h.isHollow && !h.isEmpty
}

func (h *Hierarchy) setChildren(children *[8]*Node) {
	if h.children != nil {
		panic("lod: hierarchy children assigned twice")
	}
	h.children = children
}

// Node is one block of the octree.
type Node struct {
	address octree.Address
	level   *Level
	center  math.Vec3
	radius  float32

	mu       sync.Mutex
	grid     Grid
	hier     Hierarchy
	disposed bool
}

func newNode(a octree.Address, level *Level) *Node {
	return &Node{
		address: a,
		level:   level,
		center:  level.Center(a),
		radius:  level.BoundingRadius(),
		grid:    Grid{isHollow: true},
		hier:    Hierarchy{isHollow: true},
	}
}

// Address returns the node's octree address.
func (n *Node) Address() octree.Address { return n.address }

// Level returns the node's generation level.
func (n *Node) Level() *Level { return n.level }

// BoundingCircle returns the sphere enclosing the block.
func (n *Node) BoundingCircle() (math.Vec3, float32) {
	return n.center, n.radius
}

// Children returns the children once the hierarchy has been generated.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.hier.children == nil {
		return nil
	}
	return n.hier.children[:]
}

// GridVisible reports whether the node's mesh is currently drawn.
func (n *Node) GridVisible() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.grid.visible()
}

// CheckAndIncreaseResolution walks the subtree below n, deciding per node
// whether its own grid is detailed enough for camera, and schedules the
// grid or hierarchy jobs needed to converge on that.
func (n *Node) CheckAndIncreaseResolution(frustum Frustum, camera Camera) {
	n.mu.Lock()
	if n.disposed || n.grid.isBeingGenerated || n.hier.status == Generating {
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()

	if !frustum.Intersects(n.center, n.radius) {
		n.collapseHierarchy()
		n.MakeHollow()
		return
	}

	if n.sufficient(camera) {
		n.mu.Lock()
		ready := n.grid.ready()
		if !ready && n.grid.shouldGenerate() {
			n.startGridJob()
		}
		n.mu.Unlock()
		if ready {
			n.collapseHierarchy()
		}
		return
	}

	n.mu.Lock()
	if n.effectivelyEmpty() {
		n.mu.Unlock()
		n.collapseHierarchy()
		n.MakeHollow()
		return
	}
	if n.hier.status == NotGenerated {
		n.startHierarchyJob()
		n.mu.Unlock()
		return
	}
	n.hier.isHollow = false
	children := n.hier.children
	n.mu.Unlock()

	if children == nil {
		panic("lod: recursing into a generated hierarchy without children")
	}
	n.MakeHollow()
	for _, c := range children {
		c.CheckAndIncreaseResolution(frustum, camera)
	}
}

// sufficient applies the screen-space error heuristic.
func (n *Node) sufficient(camera Camera) bool {
	t := n.level.shared.tuning
	if n.level.Depth >= t.MaxDepth {
		return true
	}
	view := camera.Rotation.Rotate(n.center).Add(camera.Translation)
	dist := gomath.Pow(float64(view.Length()), float64(t.ErrorExponent))
	footprint := dist * 2 * gomath.Tan(float64(camera.FieldOfView)/2)
	if footprint <= 0 {
		return false
	}
	return float64(n.level.VoxelSize)/footprint < float64(t.ErrorThreshold)
}

// effectivelyEmpty must be called with n.mu held.
func (n *Node) effectivelyEmpty() bool {
	if n.grid.ignoreIsEmpty {
		return false
	}
	if n.grid.isEmpty {
		return true
	}
	return n.hier.status == HasBeenGenerated && n.hier.isEmpty
}

// MakeHollow removes the node's mesh from the drawables, keeping the
// compressed signs so the grid can be restored later.
func (n *Node) MakeHollow() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hollowLocked()
}

func (n *Node) hollowLocked() {
	if n.grid.visible() {
		n.level.shared.drawables.RemoveDrawableGrid(n.address)
		n.level.shared.drawn.Add(-1)
	}
	n.grid.epoch++
	n.grid.isHollow = true
}

// collapseHierarchy hollows every descendant.
func (n *Node) collapseHierarchy() {
	n.mu.Lock()
	if n.hier.status != HasBeenGenerated || n.hier.isHollow {
		n.mu.Unlock()
		return
	}
	n.hier.isHollow = true
	children := n.hier.children
	n.mu.Unlock()

	for _, c := range children {
		c.collapseHierarchy()
		c.MakeHollow()
	}
}

// Dispose hollows n and its whole subtree and drops them from the shared
// map. Jobs still running for disposed nodes discard their results.
func (n *Node) Dispose() {
	n.mu.Lock()
	if n.disposed {
		n.mu.Unlock()
		return
	}
	n.hollowLocked()
	n.disposed = true
	children := n.hier.children
	n.mu.Unlock()

	n.level.shared.unregister(n)
	if children == nil {
		return
	}
	for _, c := range children {
		c.Dispose()
	}
}

// latch forces the grid to generate even if it was initialized empty.
func (n *Node) latch() {
	n.mu.Lock()
	n.grid.ignoreIsEmpty = true
	n.mu.Unlock()
}
