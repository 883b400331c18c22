// Package noise provides the deterministic density functions the planet is
// carved from. Density is positive inside the planet.
package noise

import (
	"errors"
	"fmt"

	"github.com/Faultbox/voxplanet/pkg/math"
)

// Generator is a pure density function of world position.
type Generator interface {
	Density(p math.Vec3) float32
}

// RowSampler is implemented by generators that evaluate a whole row of
// samples faster than point by point.
type RowSampler interface {
	// SampleRow writes Density(start + i*step*X) > 0 into out[i].
	SampleRow(start math.Vec3, step float32, out []bool)
}

// SampleRow fills out with the signs along a row parallel to X, using the
// generator's batched path when it has one.
func SampleRow(g Generator, start math.Vec3, step float32, out []bool) {
	if rs, ok := g.(RowSampler); ok {
		rs.SampleRow(start, step, out)
		return
	}
	for i := range out {
		p := math.Vec3{X: start.X + float32(i)*step, Y: start.Y, Z: start.Z}
		out[i] = g.Density(p) > 0
	}
}

// Params describes a planet.
type Params struct {
	Seed        int64
	Radius      float32
	NoiseWeight float32
	Frequency   float32
	Octaves     int
}

// ErrUnknownKind is returned by New for an unsupported generator kind.
var ErrUnknownKind = errors.New("noise: unknown generator kind")

// New builds the generator named by kind ("turbulence" or "perlin").
func New(kind string, p Params) (Generator, error) {
	switch kind {
	case "", "turbulence":
		return NewTurbulence(p), nil
	case "perlin":
		return NewPerlin(p), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// baseAmplitude is the first-octave amplitude. Every later octave halves it,
// so the surface never leaves radius ± 2*baseAmplitude.
func (p Params) baseAmplitude() float32 {
	return p.NoiseWeight * p.Radius / 16
}

// MaxExtent is the largest distance from the center at which density can
// still be positive.
func (p Params) MaxExtent() float32 {
	return p.Radius + 2*p.baseAmplitude()
}
