package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/voxplanet/pkg/math"
)

func assertVec(t *testing.T, want, got math.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-4)
	assert.InDelta(t, want.Y, got.Y, 1e-4)
	assert.InDelta(t, want.Z, got.Z, 1e-4)
}

func TestLooksAtOrigin(t *testing.T) {
	tests := []struct {
		name string
		pos  math.Vec3
	}{
		{"front", math.Vec3{Z: 3}},
		{"side", math.Vec3{X: -2}},
		{"above", math.Vec3{Y: 1, Z: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFlyCamera(tt.pos, 60, 0.5, 1)
			assertVec(t, tt.pos.Scale(-1).Normalize(), c.Forward())

			// The origin lands on the view axis.
			snap := c.Snapshot()
			view := snap.Rotation.Rotate(math.Vec3{}).Add(snap.Translation)
			assertVec(t, math.Vec3{Z: -tt.pos.Length()}, view)
		})
	}
}

func TestFrustumSeesPlanet(t *testing.T) {
	c := NewFlyCamera(math.Vec3{Z: 3}, 60, 0.5, 1)
	f := c.Frustum(16.0 / 9)
	assert.True(t, f.Intersects(math.Vec3{}, 1))
	assert.False(t, f.Intersects(math.Vec3{Z: 6}, 1), "behind the camera")
}

func TestMovementScalesWithAltitude(t *testing.T) {
	c := NewFlyCamera(math.Vec3{Z: 3}, 60, 0.5, 1)
	c.HandleMovement(1, 0, 0, 1)
	assertVec(t, math.Vec3{Z: 2}, c.Position)

	c.HandleMovement(1, 0, 0, 1)
	assertVec(t, math.Vec3{Z: 1.5}, c.Position)
}

func TestPitchIsClamped(t *testing.T) {
	c := NewFlyCamera(math.Vec3{Z: 3}, 60, 0.5, 1)
	c.HandleMouse(0, -10000)
	assert.Equal(t, c.MaxPitch, c.Pitch)
	c.HandleMouse(0, 10000)
	assert.Equal(t, -c.MaxPitch, c.Pitch)
}
