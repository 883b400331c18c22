package math

// Plane is n·p + D = 0 with a unit normal pointing into the kept half-space.
type Plane struct {
	Normal Vec3
	D      float32
}

// Distance returns the signed distance of p from the plane.
func (p Plane) Distance(v Vec3) float32 {
	return p.Normal.Dot(v) + p.D
}

// Frustum is the six clip planes of a view-projection matrix:
// left, right, bottom, top, near, far.
type Frustum [6]Plane

// FrustumFromMatrix extracts the clip planes of viewProj (Gribb/Hartmann).
func FrustumFromMatrix(viewProj Mat4) Frustum {
	r0, r1, r2, r3 := viewProj.row(0), viewProj.row(1), viewProj.row(2), viewProj.row(3)

	combine := func(a, b [4]float32, sign float32) Plane {
		n := Vec3{a[0] + sign*b[0], a[1] + sign*b[1], a[2] + sign*b[2]}
		d := a[3] + sign*b[3]
		l := n.Length()
		if l == 0 {
			return Plane{}
		}
		return Plane{Normal: n.Scale(1 / l), D: d / l}
	}

	return Frustum{
		combine(r3, r0, 1),
		combine(r3, r0, -1),
		combine(r3, r1, 1),
		combine(r3, r1, -1),
		combine(r3, r2, 1),
		combine(r3, r2, -1),
	}
}

// Intersects reports whether the sphere (center, radius) is at least
// partially inside the frustum.
func (f *Frustum) Intersects(center Vec3, radius float32) bool {
	for _, p := range f {
		if p.Distance(center) < -radius {
			return false
		}
	}
	return true
}
