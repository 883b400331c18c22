// Package camera provides the free-fly camera of the planet viewer.
package camera

import (
	gomath "math"

	"github.com/Faultbox/voxplanet/internal/lod"
	"github.com/Faultbox/voxplanet/pkg/math"
)

// FlyCamera moves freely around the planet. It looks down its local -Z.
type FlyCamera struct {
	Position math.Vec3

	// Orientation
	Yaw   float32 // around world Y (radians)
	Pitch float32 // around local X (radians)

	FieldOfView float32 // vertical, radians
	Near, Far   float32

	// Movement
	Speed            float32 // units per second at one radius of altitude
	PlanetRadius     float32
	MouseSensitivity float32
	MaxPitch         float32
}

// NewFlyCamera places a camera at position looking at the origin.
func NewFlyCamera(position math.Vec3, fovDegrees, speed, planetRadius float32) *FlyCamera {
	c := &FlyCamera{
		Position:         position,
		FieldOfView:      fovDegrees * gomath.Pi / 180,
		Near:             0.0005,
		Far:              100,
		Speed:            speed,
		PlanetRadius:     planetRadius,
		MouseSensitivity: 0.003,
		MaxPitch:         1.55,
	}
	c.LookAt(math.Vec3{})
	return c
}

// LookAt turns the camera towards target.
func (c *FlyCamera) LookAt(target math.Vec3) {
	dir := target.Sub(c.Position)
	if dir.LengthSquared() == 0 {
		return
	}
	dir = dir.Normalize()
	c.Yaw = float32(gomath.Atan2(float64(-dir.X), float64(-dir.Z)))
	c.Pitch = float32(gomath.Asin(float64(dir.Y)))
	c.clampPitch()
}

func (c *FlyCamera) clampPitch() {
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
	if c.Pitch < -c.MaxPitch {
		c.Pitch = -c.MaxPitch
	}
}

// Orientation returns the camera to world rotation.
func (c *FlyCamera) Orientation() math.Quat {
	yaw := math.QuatFromAxisAngle(math.Vec3{Y: 1}, c.Yaw)
	pitch := math.QuatFromAxisAngle(math.Vec3{X: 1}, c.Pitch)
	return yaw.Mul(pitch).Normalize()
}

// Rotation returns the world to view rotation.
func (c *FlyCamera) Rotation() math.Quat {
	return c.Orientation().Conjugate()
}

// Forward returns the viewing direction in world space.
func (c *FlyCamera) Forward() math.Vec3 {
	return c.Orientation().Rotate(math.Vec3{Z: -1})
}

// Right returns the camera's right direction in world space.
func (c *FlyCamera) Right() math.Vec3 {
	return c.Orientation().Rotate(math.Vec3{X: 1})
}

// Up returns the camera's up direction in world space.
func (c *FlyCamera) Up() math.Vec3 {
	return c.Orientation().Rotate(math.Vec3{Y: 1})
}

// HandleMouse turns the camera by a relative mouse motion.
func (c *FlyCamera) HandleMouse(dx, dy float32) {
	c.Yaw -= dx * c.MouseSensitivity
	c.Pitch -= dy * c.MouseSensitivity
	c.clampPitch()
}

// HandleMovement moves along the camera axes. Speed scales with altitude
// above the planet radius so approaching the surface slows down.
func (c *FlyCamera) HandleMovement(forward, right, up, dt float32) {
	altitude := c.Position.Length() - c.PlanetRadius
	if altitude < 0.001 {
		altitude = 0.001
	}
	step := c.Speed * altitude * dt
	move := c.Forward().Scale(forward).
		Add(c.Right().Scale(right)).
		Add(c.Up().Scale(up))
	c.Position = c.Position.Add(move.Scale(step))
}

// ViewMatrix returns the world to view matrix.
func (c *FlyCamera) ViewMatrix() math.Mat4 {
	snap := c.Snapshot()
	return math.ViewMatrix(snap.Rotation, snap.Translation)
}

// ProjectionMatrix returns the perspective projection for aspect.
func (c *FlyCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	return math.Perspective(c.FieldOfView, aspect, c.Near, c.Far)
}

// Frustum returns the culling volume for aspect.
func (c *FlyCamera) Frustum(aspect float32) *math.Frustum {
	f := math.FrustumFromMatrix(c.ProjectionMatrix(aspect).Mul(c.ViewMatrix()))
	return &f
}

// Snapshot returns the view state the LOD traversal reads.
func (c *FlyCamera) Snapshot() lod.Camera {
	return lod.NewCamera(c.Position, c.Rotation(), c.FieldOfView)
}
