package noise

import (
	gomath "math"
	"math/rand/v2"

	"github.com/Faultbox/voxplanet/pkg/math"
)

const twoPi = 2 * gomath.Pi

// octave is one band of periodic noise: the mean of three cosine waves
// along seeded directions.
type octave struct {
	dir   [3]math.Vec3 // direction * angular frequency
	phase [3]float32
	amp   float32
	// bound is the largest value this and all later octaves can still add.
	bound float32
}

func (o *octave) sample(x, y, z float32) float32 {
	var s float32
	for i := range o.dir {
		d := o.dir[i]
		s += fastCos(x*d.X + y*d.Y + z*d.Z + o.phase[i])
	}
	return s * (1.0 / 3.0)
}

// fastCos approximates cos(x) with a corrected parabola. |fastCos(x)| <= 1.
func fastCos(x float32) float32 {
	t := x * (1 / twoPi)
	t -= 0.25 + float32(gomath.Floor(float64(t+0.25)))
	t *= 16 * (abs(t) - 0.5)
	t += 0.225 * t * (abs(t) - 1)
	return t
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func length(x, y, z float32) float32 {
	return float32(gomath.Sqrt(float64(x*x + y*y + z*z)))
}

// accumulate keeps amp*s rounded to float32 before the add, so no platform
// fuses it into an FMA and every lane width rounds identically.
func accumulate(d, amp, s float32) float32 {
	return d + float32(amp*s)
}

// Turbulence is distance-to-sphere plus seeded multi-octave periodic noise.
// Evaluation of a point stops as soon as the remaining octaves cannot flip
// its sign; most points far from the surface stop after one or two octaves.
type Turbulence struct {
	params  Params
	octaves []octave
	lanes   int
}

// TurbulenceOption configures a Turbulence generator.
type TurbulenceOption func(*Turbulence)

// WithLanes forces the lockstep batch width (1..8).
func WithLanes(n int) TurbulenceOption {
	return func(t *Turbulence) {
		t.lanes = min(max(n, 1), maxLanes)
	}
}

// NewTurbulence seeds the octave table for p.
func NewTurbulence(p Params, opts ...TurbulenceOption) *Turbulence {
	t := &Turbulence{params: p, lanes: DetectLanes()}
	for _, opt := range opts {
		opt(t)
	}

	r := rand.New(rand.NewPCG(uint64(p.Seed), uint64(p.Seed)^0x9e3779b97f4a7c15))
	amp := p.baseAmplitude()
	freq := float64(p.Frequency) * twoPi / float64(p.Radius)

	t.octaves = make([]octave, max(p.Octaves, 0))
	for i := range t.octaves {
		o := &t.octaves[i]
		for k := range o.dir {
			dir := math.Vec3{
				X: float32(r.NormFloat64()),
				Y: float32(r.NormFloat64()),
				Z: float32(r.NormFloat64()),
			}.Normalize()
			o.dir[k] = dir.Scale(float32(freq))
			o.phase[k] = float32(r.Float64() * twoPi)
		}
		o.amp = amp
		amp *= 0.5
		freq *= 2
	}

	var remaining float32
	for i := len(t.octaves) - 1; i >= 0; i-- {
		remaining += t.octaves[i].amp
		t.octaves[i].bound = remaining
	}
	return t
}

// Lanes returns the batch width in use.
func (t *Turbulence) Lanes() int { return t.lanes }

// Params returns the planet parameters.
func (t *Turbulence) Params() Params { return t.params }

// Density evaluates one point.
func (t *Turbulence) Density(p math.Vec3) float32 {
	d := t.params.Radius - length(p.X, p.Y, p.Z)
	for i := range t.octaves {
		o := &t.octaves[i]
		if abs(d) > o.bound {
			break
		}
		d = accumulate(d, o.amp, o.sample(p.X, p.Y, p.Z))
	}
	return d
}

// SampleRow evaluates a row in batches of Lanes() points that advance
// through the octaves together. Each lane runs exactly the scalar
// sequence, so the signs do not depend on the batch width.
func (t *Turbulence) SampleRow(start math.Vec3, step float32, out []bool) {
	for base := 0; base < len(out); base += t.lanes {
		n := min(t.lanes, len(out)-base)
		t.batch(start, step, base, out[base:base+n])
	}
}

func (t *Turbulence) batch(start math.Vec3, step float32, base int, out []bool) {
	var (
		px, d  [maxLanes]float32
		active [maxLanes]bool
	)
	n := len(out)
	py, pz := start.Y, start.Z

	for l := 0; l < n; l++ {
		px[l] = start.X + float32(base+l)*step
		d[l] = t.params.Radius - length(px[l], py, pz)
		active[l] = true
	}

	for i := range t.octaves {
		o := &t.octaves[i]
		running := false
		for l := 0; l < n; l++ {
			if !active[l] {
				continue
			}
			if abs(d[l]) > o.bound {
				active[l] = false
				continue
			}
			d[l] = accumulate(d[l], o.amp, o.sample(px[l], py, pz))
			running = true
		}
		if !running {
			break
		}
	}

	for l := 0; l < n; l++ {
		out[l] = d[l] > 0
	}
}
