package voxel

import "github.com/Faultbox/voxplanet/internal/octree"

// Sides holds one flag per octree.Side.
type Sides [6]bool

// IsAnyUsed reports whether any side is set.
func (s Sides) IsAnyUsed() bool {
	for _, b := range s {
		if b {
			return true
		}
	}
	return false
}

// Touched returns the sides that are set.
func (s Sides) Touched() []octree.Side {
	var out []octree.Side
	for i, b := range s {
		if b {
			out = append(out, octree.Side(i))
		}
	}
	return out
}

// EdgePointsUsed reports, per side, whether any used corner point lies on
// the boundary plane of the block. Geometry there continues into the
// neighboring block.
func (f *Field) EdgePointsUsed() Sides {
	var out Sides
	last := f.m - 1
	for a := 0; a < f.m; a++ {
		for b := 0; b < f.m; b++ {
			out[octree.NegX] = out[octree.NegX] || f.used[f.pointIndex(0, a, b)]
			out[octree.PosX] = out[octree.PosX] || f.used[f.pointIndex(last, a, b)]
			out[octree.NegY] = out[octree.NegY] || f.used[f.pointIndex(a, 0, b)]
			out[octree.PosY] = out[octree.PosY] || f.used[f.pointIndex(a, last, b)]
			out[octree.NegZ] = out[octree.NegZ] || f.used[f.pointIndex(a, b, 0)]
			out[octree.PosZ] = out[octree.PosZ] || f.used[f.pointIndex(a, b, last)]
		}
	}
	return out
}

// SubGridEdgePointsUsed returns an 8-bit mask with bit o set when a used
// point falls in child octant o (bit0=x, bit1=y, bit2=z, set meaning the
// upper half). Points on a mid plane count for both halves.
func (f *Field) SubGridEdgePointsUsed() uint8 {
	span := f.m - 1 // 2*mid in corner units
	var halves [3][2]uint8
	var mask uint8
	for z := 0; z < f.m; z++ {
		for y := 0; y < f.m; y++ {
			for x := 0; x < f.m; x++ {
				if !f.used[f.pointIndex(x, y, z)] {
					continue
				}
				for axis, c := range [3]int{x, y, z} {
					halves[axis][0] = 0
					halves[axis][1] = 0
					if 2*c <= span {
						halves[axis][0] = 1
					}
					if 2*c >= span {
						halves[axis][1] = 1
					}
				}
				for o := 0; o < 8; o++ {
					if halves[0][o&1] == 1 && halves[1][o>>1&1] == 1 && halves[2][o>>2&1] == 1 {
						mask |= 1 << uint(o)
					}
				}
				if mask == 0xff {
					return mask
				}
			}
		}
	}
	return mask
}
