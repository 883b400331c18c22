package lod

import (
	"go.uber.org/zap"

	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/internal/scheduler"
	"github.com/Faultbox/voxplanet/internal/voxel"
)

// startGridJob must be called with n.mu held.
func (n *Node) startGridJob() {
	if n.grid.isBeingGenerated {
		panic("lod: grid " + n.address.String() + " generated twice")
	}
	n.grid.isBeingGenerated = true
	epoch := n.grid.epoch
	compressed := n.grid.compressed

	shared := n.level.shared
	err := shared.jobs.Submit(scheduler.Job{
		Kind: scheduler.KindGrid,
		Name: n.address.String(),
		Run:  func() { n.generateGrid(epoch, compressed) },
		Failed: func(error) {
			n.mu.Lock()
			n.grid.isBeingGenerated = false
			n.mu.Unlock()
		},
	})
	if err != nil {
		n.grid.isBeingGenerated = false
		shared.log.Debug("Grid job rejected", zap.Stringer("address", n.address), zap.Error(err))
	}
}

// gridResult is what a grid job hands back to its node.
type gridResult struct {
	mesh       *voxel.Mesh
	compressed []byte
	edges      voxel.Sides
	subBlocks  uint8
	triangles  int
}

func (n *Node) generateGrid(epoch uint64, compressed []byte) {
	shared := n.level.shared
	field := shared.pool.Field()
	defer shared.pool.PutField(field)

	field.Repurpose(n.center, n.level.Spec)
	if compressed != nil {
		if err := field.Restore(compressed); err != nil {
			shared.log.Warn("Restoring grid failed, resampling",
				zap.Stringer("address", n.address), zap.Error(err))
			compressed = nil
		}
	}
	if compressed == nil {
		field.Randomize()
	}

	vertices, triangles := field.PreCalculateGeometryData()
	res := gridResult{
		compressed: compressed,
		edges:      field.EdgePointsUsed(),
		subBlocks:  field.SubGridEdgePointsUsed(),
		triangles:  triangles,
	}
	if triangles > 0 {
		field.Interpolate()
		res.mesh = shared.pool.Mesh()
		field.Triangulize(vertices, triangles, res.mesh)
		if res.compressed == nil {
			res.compressed = field.Compress()
		}
	}

	if !n.publishGrid(epoch, res) {
		shared.pool.PutMesh(res.mesh)
		shared.jobs.Discard(scheduler.KindGrid)
		shared.log.Debug("Grid result discarded", zap.Stringer("address", n.address))
		return
	}
	if res.edges.IsAnyUsed() {
		n.MarkMustGenerateSurroundings(res.edges)
	}
}

func (n *Node) publishGrid(epoch uint64, res gridResult) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.grid.isBeingGenerated = false
	if n.disposed || n.grid.epoch != epoch {
		return false
	}
	g := &n.grid
	g.compressed = res.compressed
	g.subBlocks = res.subBlocks
	g.hasBeenGenerated = true
	g.isEmpty = res.triangles == 0
	g.isHollow = false
	if res.mesh != nil {
		n.level.shared.drawables.MakeGridDrawable(n.address, res.mesh)
		n.level.shared.drawn.Add(1)
	}
	return true
}

// startHierarchyJob must be called with n.mu held.
func (n *Node) startHierarchyJob() {
	n.hier.status = Generating
	hint := uint8(0xff)
	if n.grid.hasBeenGenerated {
		hint = n.grid.subBlocks
	}

	shared := n.level.shared
	err := shared.jobs.Submit(scheduler.Job{
		Kind: scheduler.KindHierarchy,
		Name: n.address.String(),
		Run:  func() { n.generateHierarchy(hint) },
		Failed: func(error) {
			n.mu.Lock()
			if n.hier.status == Generating {
				n.hier.status = NotGenerated
			}
			n.mu.Unlock()
		},
	})
	if err != nil {
		n.hier.status = NotGenerated
		shared.log.Debug("Hierarchy job rejected", zap.Stringer("address", n.address), zap.Error(err))
	}
}

// generateHierarchy creates the eight children. A child whose octant held
// no geometry in n's grid starts empty unless a neighbor asked for it.
func (n *Node) generateHierarchy(hint uint8) {
	shared := n.level.shared
	finer := n.level.FinerLevel()

	var children [8]*Node
	empty := true
	for o := range children {
		a := n.address.Child(o)
		c := newNode(a, finer)
		if shared.takeMustGenerate(a) {
			c.grid.ignoreIsEmpty = true
		} else if hint&(1<<uint(o)) == 0 {
			c.grid.isEmpty = true
			c.hier.isEmpty = true
		}
		if !c.grid.isEmpty {
			empty = false
		}
		children[o] = c
	}

	n.mu.Lock()
	if n.disposed {
		n.mu.Unlock()
		shared.jobs.Discard(scheduler.KindHierarchy)
		shared.log.Debug("Hierarchy result discarded", zap.Stringer("address", n.address))
		return
	}
	n.hier.setChildren(&children)
	n.hier.status = HasBeenGenerated
	n.hier.isEmpty = empty
	for _, c := range children {
		shared.register(c)
	}
	n.mu.Unlock()
}

// MarkMustGenerateSurroundings makes sure the neighbors on every touched
// side will generate their grids, so geometry crossing the block boundary
// is not cut off by a neighbor that was guessed empty.
func (n *Node) MarkMustGenerateSurroundings(sides voxel.Sides) {
	shared := n.level.shared
	for _, s := range sides.Touched() {
		a, ok := n.address.Neighbor(s)
		if !ok {
			continue
		}
		var found *Node
		for {
			if node, ok := shared.Lookup(a); ok {
				found = node
				break
			}
			shared.markMustGenerate(a)
			if a.Level == 0 {
				break
			}
			a = a.Ascend()
		}
		if found == nil {
			continue
		}
		found.latch()
		latchEmptyAncestors(shared, found.address)
	}
}

// latchEmptyAncestors latches the ancestors of a that were cached as empty,
// up to the first one that is not.
func latchEmptyAncestors(shared *Shared, a octree.Address) {
	for a.Level > 0 {
		a = a.Ascend()
		p, ok := shared.Lookup(a)
		if !ok {
			return
		}
		p.mu.Lock()
		empty := p.hier.isEmpty || p.grid.isEmpty
		if empty {
			p.grid.ignoreIsEmpty = true
		}
		p.mu.Unlock()
		if !empty {
			return
		}
	}
}
