// Package lighting provides lighting utilities for 3D rendering.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/voxplanet/pkg/math"
)

// SunDirection converts longitude/latitude angles in degrees to a unit
// vector pointing towards the sun. Longitude turns around Y, latitude is
// the elevation above the XZ plane.
func SunDirection(longitude, latitude float32) math.Vec3 {
	lon := float64(longitude) * gomath.Pi / 180
	lat := float64(latitude) * gomath.Pi / 180
	return math.Vec3{
		X: float32(gomath.Cos(lat) * gomath.Sin(lon)),
		Y: float32(gomath.Sin(lat)),
		Z: float32(gomath.Cos(lat) * gomath.Cos(lon)),
	}
}
