package lod

import (
	"sync"

	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/internal/voxel"
	"github.com/Faultbox/voxplanet/pkg/math"
)

// Level holds what every node at one octree depth shares.
type Level struct {
	voxel.Spec
	Depth int

	shared *Shared

	finerOnce sync.Once
	finer     *Level
}

// NewLevel returns the depth-0 level for spec.
func NewLevel(spec voxel.Spec, shared *Shared) *Level {
	return &Level{Spec: spec, shared: shared}
}

// Shared returns the state common to the whole tree.
func (l *Level) Shared() *Shared { return l.shared }

// FinerLevel returns the next depth, with half the voxel size. It is
// created on first use and cached.
func (l *Level) FinerLevel() *Level {
	l.finerOnce.Do(func() {
		spec := l.Spec
		spec.VoxelSize /= 2
		l.finer = &Level{Spec: spec, Depth: l.Depth + 1, shared: l.shared}
	})
	return l.finer
}

// CoarserLevel returns a new depth-0 level with twice the voxel size. It is
// not linked to l; only the root search uses it.
func (l *Level) CoarserLevel() *Level {
	spec := l.Spec
	spec.VoxelSize *= 2
	return &Level{Spec: spec, shared: l.shared}
}

// Center returns the world-space center of the block at address a, which
// must be at this level's depth. The root block is centered on the origin.
func (l *Level) Center(a octree.Address) math.Vec3 {
	extent := l.Extent()
	half := float32(int32(1)<<uint(a.Level)-1) / 2
	return math.Vec3{
		X: (float32(a.X) - half) * extent,
		Y: (float32(a.Y) - half) * extent,
		Z: (float32(a.Z) - half) * extent,
	}
}
