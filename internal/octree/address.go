// Package octree addresses nodes of the planet octree.
//
// An Address names one cube at one depth. At level L every coordinate lies
// in [0, 2^L); level 0 is the single root cube. Addresses are plain values,
// comparable, and used directly as map keys.
package octree

import "fmt"

// MaxLevel is the deepest level an int32 coordinate can address.
const MaxLevel = 30

// Address is a hierarchical integer coordinate.
type Address struct {
	X, Y, Z int32
	Level   int32
}

// Root is the address of the level-0 cube.
var Root = Address{}

func (a Address) mask() int32 {
	return int32((uint32(1) << uint32(a.Level)) - 1)
}

// Valid reports whether every coordinate is inside [0, 2^Level).
func (a Address) Valid() bool {
	if a.Level < 0 || a.Level > MaxLevel {
		return false
	}
	m := a.mask()
	return a.X == a.X&m && a.Y == a.Y&m && a.Z == a.Z&m
}

// Descend returns the address of the lowest-corner child one level down.
func (a Address) Descend() Address {
	return Address{X: a.X << 1, Y: a.Y << 1, Z: a.Z << 1, Level: a.Level + 1}
}

// Ascend returns the parent address.
func (a Address) Ascend() Address {
	return Address{
		X:     int32(uint32(a.X) >> 1),
		Y:     int32(uint32(a.Y) >> 1),
		Z:     int32(uint32(a.Z) >> 1),
		Level: a.Level - 1,
	}
}

// Child returns the child in octant (bit0=x, bit1=y, bit2=z).
func (a Address) Child(octant int) Address {
	c := a.Descend()
	c.X |= int32(octant & 1)
	c.Y |= int32(octant >> 1 & 1)
	c.Z |= int32(octant >> 2 & 1)
	return c
}

// Octant returns which child of its parent a is.
func (a Address) Octant() int {
	return int(a.X&1) | int(a.Y&1)<<1 | int(a.Z&1)<<2
}

// Move offsets the address at its own level without range checks.
func (a Address) Move(dx, dy, dz int32) Address {
	return Address{X: a.X + dx, Y: a.Y + dy, Z: a.Z + dz, Level: a.Level}
}

// TryMove offsets the address and reports whether the result is still
// inside the addressable range of its level. When it is not, the step
// leaves the root cube and the returned address must not be used.
func (a Address) TryMove(dx, dy, dz int32) (Address, bool) {
	m := a.Move(dx, dy, dz)
	return m, m.Valid()
}

// Side is one of the six axis directions of a cube.
type Side int

const (
	NegX Side = iota
	PosX
	NegY
	PosY
	NegZ
	PosZ
)

// Sides lists all six directions in index order.
var Sides = [6]Side{NegX, PosX, NegY, PosY, NegZ, PosZ}

// Axis returns 0, 1 or 2.
func (s Side) Axis() int { return int(s) / 2 }

// Positive reports whether the side faces the positive axis direction.
func (s Side) Positive() bool { return s%2 == 1 }

// Opposite returns the facing side.
func (s Side) Opposite() Side { return s ^ 1 }

// Offset returns the unit step towards s.
func (s Side) Offset() (dx, dy, dz int32) {
	d := int32(-1)
	if s.Positive() {
		d = 1
	}
	switch s.Axis() {
	case 0:
		return d, 0, 0
	case 1:
		return 0, d, 0
	default:
		return 0, 0, d
	}
}

func (s Side) String() string {
	return [...]string{"-x", "+x", "-y", "+y", "-z", "+z"}[s]
}

// Neighbor returns the same-level address across side s.
func (a Address) Neighbor(s Side) (Address, bool) {
	return a.TryMove(s.Offset())
}

func (a Address) String() string {
	return fmt.Sprintf("L%d(%d,%d,%d)", a.Level, a.X, a.Y, a.Z)
}
