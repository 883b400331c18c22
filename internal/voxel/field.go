// Package voxel samples one block of the density field and turns its sign
// boundaries into a flat-shaded cube-face mesh.
//
// A Field of resolution N holds N³ signs at voxel centers. Only the
// interior voxels [1, N-2]³ own faces; the outer shell is neighbor context,
// so blocks of (N-2)³ voxels tile space without overlap. Faces lie on the
// (N-1)³ corner lattice between voxel centers.
package voxel

import (
	"fmt"

	"github.com/Faultbox/voxplanet/internal/noise"
	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/pkg/math"
)

// Spec is what a block needs to know about its octree depth.
type Spec struct {
	Resolution int
	VoxelSize  float32
	Noise      noise.Generator
}

// Extent returns the edge length of a block.
func (s Spec) Extent() float32 {
	return float32(s.Resolution-2) * s.VoxelSize
}

// BoundingRadius returns the radius of the sphere around a block.
func (s Spec) BoundingRadius() float32 {
	return s.Extent() * 0.8660254 // sqrt(3)/2
}

// Field is a reusable block sample.
type Field struct {
	n int // signs per axis
	m int // corner points per axis, n-1

	center    math.Vec3
	voxelSize float32
	gen       noise.Generator

	signs  []bool
	points []math.Vec3
	used   []bool
	remap  []int32
	packed []byte

	faces      int
	usedPoints int
}

// NewField allocates a field of the given resolution.
func NewField(resolution int) *Field {
	if resolution < 4 {
		panic(fmt.Sprintf("voxel: resolution %d too small", resolution))
	}
	m := resolution - 1
	return &Field{
		n:      resolution,
		m:      m,
		signs:  make([]bool, resolution*resolution*resolution),
		points: make([]math.Vec3, m*m*m),
		used:   make([]bool, m*m*m),
		remap:  make([]int32, m*m*m),
		packed: make([]byte, 0, packedLen(resolution)),
	}
}

// Resolution returns N.
func (f *Field) Resolution() int { return f.n }

// Center returns the block center in world space.
func (f *Field) Center() math.Vec3 { return f.center }

// VoxelSize returns the edge length of one voxel.
func (f *Field) VoxelSize() float32 { return f.voxelSize }

// Repurpose points the field at a new block. Only the used mask is reset;
// signs and points are overwritten by the next Randomize/Restore and
// Interpolate.
func (f *Field) Repurpose(center math.Vec3, spec Spec) {
	if spec.Resolution != f.n {
		panic(fmt.Sprintf("voxel: field of resolution %d repurposed for %d", f.n, spec.Resolution))
	}
	f.center = center
	f.voxelSize = spec.VoxelSize
	f.gen = spec.Noise
	clear(f.used)
	f.faces = 0
	f.usedPoints = 0
}

func (f *Field) signIndex(x, y, z int) int {
	return x + f.n*(y+f.n*z)
}

func (f *Field) pointIndex(x, y, z int) int {
	return x + f.m*(y+f.m*z)
}

// Solid reports the sign of voxel (x, y, z).
func (f *Field) Solid(x, y, z int) bool {
	return f.signs[f.signIndex(x, y, z)]
}

// Set overrides the sign of voxel (x, y, z).
func (f *Field) Set(x, y, z int, solid bool) {
	f.signs[f.signIndex(x, y, z)] = solid
}

// Fill sets every sign from fn.
func (f *Field) Fill(fn func(x, y, z int) bool) {
	for z := 0; z < f.n; z++ {
		for y := 0; y < f.n; y++ {
			for x := 0; x < f.n; x++ {
				f.signs[f.signIndex(x, y, z)] = fn(x, y, z)
			}
		}
	}
}

// voxelOrigin is the world position of voxel (0, 0, 0).
func (f *Field) voxelOrigin() math.Vec3 {
	half := float32(f.n-1) / 2 * f.voxelSize
	return f.center.Sub(math.Vec3{X: half, Y: half, Z: half})
}

// Randomize samples the noise generator at every voxel center.
func (f *Field) Randomize() {
	if f.gen == nil {
		panic("voxel: Randomize without a noise generator")
	}
	origin := f.voxelOrigin()
	for z := 0; z < f.n; z++ {
		for y := 0; y < f.n; y++ {
			start := math.Vec3{
				X: origin.X,
				Y: origin.Y + float32(y)*f.voxelSize,
				Z: origin.Z + float32(z)*f.voxelSize,
			}
			row := f.signIndex(0, y, z)
			noise.SampleRow(f.gen, start, f.voxelSize, f.signs[row:row+f.n])
		}
	}
}

// faceCorners returns the corner lattice coordinates of the face of voxel v
// on side s, wound counter-clockwise seen from outside the solid.
func faceCorners(v [3]int, s octree.Side) [4][3]int {
	a := s.Axis()
	b := (a + 1) % 3
	c := (a + 2) % 3

	plane := v[a] - 1
	if s.Positive() {
		plane = v[a]
	}

	var quad [4][3]int
	bc := [4][2]int{{-1, -1}, {0, -1}, {0, 0}, {-1, 0}}
	for i, o := range bc {
		quad[i][a] = plane
		quad[i][b] = v[b] + o[0]
		quad[i][c] = v[c] + o[1]
	}
	if !s.Positive() {
		quad[1], quad[3] = quad[3], quad[1]
	}
	return quad
}

// exposed calls fn for every face of every solid interior voxel whose
// neighbor on that side is not solid.
func (f *Field) exposed(fn func(v [3]int, s octree.Side)) {
	for z := 1; z < f.n-1; z++ {
		for y := 1; y < f.n-1; y++ {
			for x := 1; x < f.n-1; x++ {
				if !f.signs[f.signIndex(x, y, z)] {
					continue
				}
				v := [3]int{x, y, z}
				for _, s := range octree.Sides {
					dx, dy, dz := s.Offset()
					if f.signs[f.signIndex(x+int(dx), y+int(dy), z+int(dz))] {
						continue
					}
					fn(v, s)
				}
			}
		}
	}
}

// PreCalculateGeometryData marks the corner points of every exposed face
// and returns the number of distinct used points and the triangle count
// (two per face). Call it once after Repurpose and Randomize/Restore.
func (f *Field) PreCalculateGeometryData() (usedPoints, triangles int) {
	f.faces = 0
	f.exposed(func(v [3]int, s octree.Side) {
		for _, c := range faceCorners(v, s) {
			f.used[f.pointIndex(c[0], c[1], c[2])] = true
		}
		f.faces++
	})

	f.usedPoints = 0
	for _, u := range f.used {
		if u {
			f.usedPoints++
		}
	}
	return f.usedPoints, f.faces * 2
}

// Interpolate places every corner point on its lattice position. Corner c
// along an axis sits at center + (c - (N-2)/2) * voxelSize.
func (f *Field) Interpolate() {
	half := float32(f.n-2) / 2
	for z := 0; z < f.m; z++ {
		pz := f.center.Z + (float32(z)-half)*f.voxelSize
		for y := 0; y < f.m; y++ {
			py := f.center.Y + (float32(y)-half)*f.voxelSize
			for x := 0; x < f.m; x++ {
				f.points[f.pointIndex(x, y, z)] = math.Vec3{
					X: f.center.X + (float32(x)-half)*f.voxelSize,
					Y: py,
					Z: pz,
				}
			}
		}
	}
}

// Smooth relaxes used points towards the mean of their used lattice
// neighbors. The steady-state pipeline never calls it.
func (f *Field) Smooth(iterations int) {
	next := make([]math.Vec3, len(f.points))
	for it := 0; it < iterations; it++ {
		copy(next, f.points)
		for z := 0; z < f.m; z++ {
			for y := 0; y < f.m; y++ {
				for x := 0; x < f.m; x++ {
					i := f.pointIndex(x, y, z)
					if !f.used[i] {
						continue
					}
					var sum math.Vec3
					count := 0
					for _, s := range octree.Sides {
						dx, dy, dz := s.Offset()
						nx, ny, nz := x+int(dx), y+int(dy), z+int(dz)
						if nx < 0 || ny < 0 || nz < 0 || nx >= f.m || ny >= f.m || nz >= f.m {
							continue
						}
						j := f.pointIndex(nx, ny, nz)
						if f.used[j] {
							sum = sum.Add(f.points[j])
							count++
						}
					}
					if count > 0 {
						next[i] = f.points[i].Lerp(sum.Scale(1/float32(count)), 0.5)
					}
				}
			}
		}
		f.points, next = next, f.points
	}
}

// Triangulize writes the faces found by PreCalculateGeometryData into mesh.
// Points are compacted in first-use order and shared between faces; each
// vertex's normal mask is the OR of the directions of its faces. The counts
// must be the ones PreCalculateGeometryData just returned.
func (f *Field) Triangulize(vertexCount, triangleCount int, mesh *Mesh) {
	if vertexCount != f.usedPoints || triangleCount != f.faces*2 {
		panic(fmt.Sprintf("voxel: Triangulize(%d, %d) does not match precalculated (%d, %d)",
			vertexCount, triangleCount, f.usedPoints, f.faces*2))
	}
	mesh.reset(vertexCount, triangleCount)
	for i := range f.remap {
		f.remap[i] = -1
	}

	next := int32(0)
	f.exposed(func(v [3]int, s octree.Side) {
		var idx [4]uint32
		bit := uint8(1) << uint(s)
		for i, c := range faceCorners(v, s) {
			old := f.pointIndex(c[0], c[1], c[2])
			n := f.remap[old]
			if n < 0 {
				n = next
				next++
				f.remap[old] = n
				mesh.Positions[n] = f.points[old]
			}
			mesh.Normals[n] |= bit
			idx[i] = uint32(n)
		}
		mesh.Indices = append(mesh.Indices, idx[0], idx[1], idx[2], idx[0], idx[2], idx[3])
	})

	if int(next) != vertexCount || len(mesh.Indices) != 3*triangleCount {
		panic(fmt.Sprintf("voxel: Triangulize produced %d vertices / %d indices, want %d / %d",
			next, len(mesh.Indices), vertexCount, 3*triangleCount))
	}
	mesh.Center = f.center
	mesh.Radius = Spec{Resolution: f.n, VoxelSize: f.voxelSize}.BoundingRadius()
}
