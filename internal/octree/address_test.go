package octree

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomAddress(r *rand.Rand, level int32) Address {
	n := int32(1) << level
	return Address{X: r.Int32N(n), Y: r.Int32N(n), Z: r.Int32N(n), Level: level}
}

func TestDescendAscendRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for level := int32(0); level < MaxLevel; level++ {
		for i := 0; i < 50; i++ {
			a := randomAddress(r, level)
			require.True(t, a.Valid(), "generated address %v must be valid", a)
			assert.Equal(t, a, a.Descend().Ascend())
			for oct := 0; oct < 8; oct++ {
				c := a.Child(oct)
				assert.True(t, c.Valid())
				assert.Equal(t, a, c.Ascend())
				assert.Equal(t, oct, c.Octant())
			}
		}
	}
}

func TestTryMoveStaysInRange(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	offsets := []int32{-3, -1, 0, 1, 2, 5}

	for level := int32(0); level < 12; level++ {
		for i := 0; i < 20; i++ {
			a := randomAddress(r, level)
			for _, dx := range offsets {
				for _, dz := range offsets {
					m, ok := a.TryMove(dx, 0, dz)
					if !ok {
						continue
					}
					mask := int32(1)<<level - 1
					assert.Equal(t, m.X, m.X&mask)
					assert.Equal(t, m.Y, m.Y&mask)
					assert.Equal(t, m.Z, m.Z&mask)
					assert.Equal(t, level, m.Level)
				}
			}
		}
	}
}

func TestTryMoveLeavesRoot(t *testing.T) {
	tests := []struct {
		name       string
		from       Address
		dx, dy, dz int32
		ok         bool
	}{
		{"root cannot move", Root, 1, 0, 0, false},
		{"low edge -x", Address{0, 1, 1, 2}, -1, 0, 0, false},
		{"high edge +y", Address{1, 3, 1, 2}, 0, 1, 0, false},
		{"interior step", Address{1, 1, 1, 2}, 1, 1, 1, true},
		{"sibling across parent", Address{1, 0, 0, 2}, 1, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.from.TryMove(tt.dx, tt.dy, tt.dz)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestSides(t *testing.T) {
	for _, s := range Sides {
		dx, dy, dz := s.Offset()
		ox, oy, oz := s.Opposite().Offset()
		assert.Equal(t, [3]int32{-dx, -dy, -dz}, [3]int32{ox, oy, oz}, "side %v", s)
		assert.Equal(t, s, s.Opposite().Opposite())
	}

	n, ok := Address{X: 2, Y: 2, Z: 2, Level: 2}.Neighbor(PosZ)
	require.True(t, ok)
	assert.Equal(t, Address{X: 2, Y: 2, Z: 3, Level: 2}, n)
}

func TestValidRejectsNegative(t *testing.T) {
	assert.False(t, Address{X: -1, Level: 3}.Valid())
	assert.False(t, Address{X: 8, Level: 3}.Valid())
	assert.True(t, Address{X: 7, Y: 7, Z: 7, Level: 3}.Valid())
}
