package renderer

import (
	"sync"

	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/internal/voxel"
)

// vertexStride is position + normal, in floats.
const vertexStride = 6

// gridData is a mesh flattened for upload.
type gridData struct {
	vertices []float32
	indices  []uint32
	center   [3]float32
	radius   float32
}

type op struct {
	addr   octree.Address
	add    bool
	upload *gridData
}

// Queue collects drawable changes from generation workers until the render
// thread applies them. It implements lod.Drawables.
type Queue struct {
	release func(*voxel.Mesh)

	mu  sync.Mutex
	ops []op
}

// NewQueue returns a queue that hands meshes to release once copied.
func NewQueue(release func(*voxel.Mesh)) *Queue {
	return &Queue{release: release}
}

// MakeGridDrawable flattens mesh and queues its upload.
func (q *Queue) MakeGridDrawable(addr octree.Address, mesh *voxel.Mesh) {
	data := flatten(mesh)
	if q.release != nil {
		q.release(mesh)
	}
	q.mu.Lock()
	q.ops = append(q.ops, op{addr: addr, add: true, upload: data})
	q.mu.Unlock()
}

// RemoveDrawableGrid queues the removal of addr.
func (q *Queue) RemoveDrawableGrid(addr octree.Address) {
	q.mu.Lock()
	q.ops = append(q.ops, op{addr: addr})
	q.mu.Unlock()
}

// take returns the pending operations in arrival order.
func (q *Queue) take() []op {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := q.ops
	q.ops = nil
	return ops
}

// Len returns the number of pending operations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

func flatten(m *voxel.Mesh) *gridData {
	d := &gridData{
		vertices: make([]float32, 0, len(m.Positions)*vertexStride),
		indices:  append([]uint32(nil), m.Indices...),
		center:   m.Center.Array(),
		radius:   m.Radius,
	}
	for i, p := range m.Positions {
		n := voxel.FaceNormal(m.Normals[i])
		d.vertices = append(d.vertices, p.X, p.Y, p.Z, n.X, n.Y, n.Z)
	}
	return d
}
