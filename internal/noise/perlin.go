package noise

import (
	"github.com/aquilax/go-perlin"

	"github.com/Faultbox/voxplanet/pkg/math"
)

// Perlin is distance-to-sphere plus classic Perlin noise. It has no early
// exit and serves as a reference surface for comparing against Turbulence.
type Perlin struct {
	params Params
	p      *perlin.Perlin
	amp    float32
	freq   float64
}

// NewPerlin builds a Perlin generator with the octave count of p.
func NewPerlin(p Params) *Perlin {
	return &Perlin{
		params: p,
		p:      perlin.NewPerlin(2, 2, int32(max(p.Octaves, 1)), p.Seed),
		amp:    2 * p.baseAmplitude(),
		freq:   float64(p.Frequency) / float64(p.Radius),
	}
}

// Density evaluates one point.
func (g *Perlin) Density(p math.Vec3) float32 {
	n := g.p.Noise3D(float64(p.X)*g.freq, float64(p.Y)*g.freq, float64(p.Z)*g.freq)
	// Noise3D can overshoot ±1 slightly; keep the surface inside MaxExtent.
	n = min(max(n, -1), 1)
	return g.params.Radius - length(p.X, p.Y, p.Z) + g.amp*float32(n)
}
