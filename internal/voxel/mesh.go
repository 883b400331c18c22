package voxel

import "github.com/Faultbox/voxplanet/pkg/math"

// Mesh is the renderable output of one block: deduplicated corner
// positions, a per-vertex mask of face directions (bit i is octree.Side i)
// and a triangle list.
type Mesh struct {
	Positions []math.Vec3
	Normals   []uint8
	Indices   []uint32

	Center math.Vec3
	Radius float32
}

// VertexCount returns the number of distinct vertices.
func (m *Mesh) VertexCount() int { return len(m.Positions) }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

func (m *Mesh) reset(vertices, triangles int) {
	if cap(m.Positions) < vertices {
		m.Positions = make([]math.Vec3, vertices)
		m.Normals = make([]uint8, vertices)
	}
	m.Positions = m.Positions[:vertices]
	m.Normals = m.Normals[:vertices]
	clear(m.Normals)
	if cap(m.Indices) < 3*triangles {
		m.Indices = make([]uint32, 0, 3*triangles)
	}
	m.Indices = m.Indices[:0]
}

// FaceNormal expands a normal mask into a unit-ish direction by summing the
// axis directions of every set bit.
func FaceNormal(mask uint8) math.Vec3 {
	var n math.Vec3
	if mask&0x01 != 0 {
		n.X--
	}
	if mask&0x02 != 0 {
		n.X++
	}
	if mask&0x04 != 0 {
		n.Y--
	}
	if mask&0x08 != 0 {
		n.Y++
	}
	if mask&0x10 != 0 {
		n.Z--
	}
	if mask&0x20 != 0 {
		n.Z++
	}
	if n.LengthSquared() == 0 {
		return n
	}
	return n.Normalize()
}
