package math

import (
	"math"
	"testing"
)

func TestFrustumIntersects(t *testing.T) {
	proj := Perspective(float32(math.Pi/3), 1, 0.1, 100)
	view := LookAt(Vec3{0, 0, 10}, Vec3{}, Vec3{0, 1, 0})
	f := FrustumFromMatrix(proj.Mul(view))

	tests := []struct {
		name   string
		center Vec3
		radius float32
		want   bool
	}{
		{"origin in front", Vec3{}, 1, true},
		{"behind camera", Vec3{0, 0, 20}, 1, false},
		{"far left", Vec3{-50, 0, 0}, 1, false},
		{"far left but huge", Vec3{-50, 0, 0}, 60, true},
		{"beyond far plane", Vec3{0, 0, -200}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Intersects(tt.center, tt.radius); got != tt.want {
				t.Errorf("Intersects(%v, %v) = %v, want %v", tt.center, tt.radius, got, tt.want)
			}
		})
	}
}
