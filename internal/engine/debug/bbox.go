// Package debug provides debug visualization utilities.
package debug

import "github.com/Faultbox/voxplanet/pkg/math"

// BoxWireframe creates line vertices for an axis-aligned box.
// Returns 24 vertices (12 edges × 2 endpoints), format: [x, y, z] per vertex.
func BoxWireframe(lo, hi math.Vec3) []float32 {
	return []float32{
		// Bottom face
		lo.X, lo.Y, lo.Z, hi.X, lo.Y, lo.Z,
		hi.X, lo.Y, lo.Z, hi.X, lo.Y, hi.Z,
		hi.X, lo.Y, hi.Z, lo.X, lo.Y, hi.Z,
		lo.X, lo.Y, hi.Z, lo.X, lo.Y, lo.Z,
		// Top face
		lo.X, hi.Y, lo.Z, hi.X, hi.Y, lo.Z,
		hi.X, hi.Y, lo.Z, hi.X, hi.Y, hi.Z,
		hi.X, hi.Y, hi.Z, lo.X, hi.Y, hi.Z,
		lo.X, hi.Y, hi.Z, lo.X, hi.Y, lo.Z,
		// Vertical edges
		lo.X, lo.Y, lo.Z, lo.X, hi.Y, lo.Z,
		hi.X, lo.Y, lo.Z, hi.X, hi.Y, lo.Z,
		hi.X, lo.Y, hi.Z, hi.X, hi.Y, hi.Z,
		lo.X, lo.Y, hi.Z, lo.X, hi.Y, hi.Z,
	}
}

// CubeWireframe outlines the cube of half edge length half around center.
func CubeWireframe(center math.Vec3, half float32) []float32 {
	d := math.Vec3{X: half, Y: half, Z: half}
	return BoxWireframe(center.Sub(d), center.Add(d))
}

// HalfExtent converts a block's bounding sphere radius back to the half
// edge length of the cube it encloses.
func HalfExtent(radius float32) float32 {
	return radius / 1.7320508
}
