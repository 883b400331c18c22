package lod

import (
	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/internal/voxel"
	"github.com/Faultbox/voxplanet/pkg/math"
)

// Camera is the per-frame view snapshot the traversal reads.
type Camera struct {
	Rotation    math.Quat // world to view
	Translation math.Vec3 // -Rotation.Rotate(Position)
	Position    math.Vec3
	FieldOfView float32 // vertical, radians
}

// NewCamera fills Translation from position and rotation.
func NewCamera(position math.Vec3, rotation math.Quat, fov float32) Camera {
	return Camera{
		Rotation:    rotation,
		Translation: rotation.Rotate(position).Scale(-1),
		Position:    position,
		FieldOfView: fov,
	}
}

// Frustum culls bounding spheres. *math.Frustum implements it.
type Frustum interface {
	Intersects(center math.Vec3, radius float32) bool
}

// Drawables receives finished grid meshes. Calls come from worker
// goroutines. Every MakeGridDrawable is followed by exactly one
// RemoveDrawableGrid for the same address before the next add.
type Drawables interface {
	MakeGridDrawable(addr octree.Address, mesh *voxel.Mesh)
	RemoveDrawableGrid(addr octree.Address)
}
