package noise

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestHash_RangeAndDeterminism(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		x := (random.Float64() - 0.5) * 1e4
		h := Hash(x)
		if h < 0 || h >= 1 {
			t.Fatalf("Hash(%v) = %v, want [0,1)", x, h)
		}
		if h != Hash(x) {
			t.Fatalf("Hash(%v) is not deterministic", x)
		}
	}
	assert.Equal(t, 0.0, Hash(0), "sin(0) is exactly zero")
}

func TestHash2_Decorrelates(t *testing.T) {
	same := 0
	for i := 1; i < 200; i++ {
		a := core.NewVec2(float64(i), float64(i*3+1))
		b := core.NewVec2(a.Y, a.X)
		if Hash2(a) == Hash2(b) {
			same++
		}
	}
	assert.Zero(t, same, "swapping components should change the hash")
}

func TestValue_Range(t *testing.T) {
	random := rand.New(rand.NewSource(11))
	for _, f := range []float64{1, 20, 50, 70, 100, 140} {
		for i := 0; i < 2000; i++ {
			p := core.NewVec2(random.Float64()*4-2, random.Float64()*4-2)
			v := Value(p, f)
			if v < 0 || v > 1 {
				t.Fatalf("Value(%v, %v) = %v, want [0,1]", p, f, v)
			}
		}
	}
}

func TestValue_MatchesLatticeAtCorners(t *testing.T) {
	// At integer lattice points the interpolation weights are zero, so the
	// noise reproduces the corner hash exactly.
	for x := -3; x <= 3; x++ {
		for y := -3; y <= 3; y++ {
			p := core.NewVec2(float64(x), float64(y))
			assert.InDelta(t, Hash2(p), Value(p, 1), 1e-12, "corner (%d,%d)", x, y)
		}
	}
}

func TestValue_ContinuousAcrossLatticeBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		frequency float64
		boundary  core.Vec2 // point on a lattice line (in unscaled coordinates)
		axis      core.Vec2 // direction crossing the line
	}{
		{"vertical line f=1", 1, core.NewVec2(3, 0.37), core.NewVec2(1, 0)},
		{"horizontal line f=1", 1, core.NewVec2(-1.6, -2), core.NewVec2(0, 1)},
		{"vertical line f=20", 20, core.NewVec2(7.0/20.0, 0.123), core.NewVec2(1, 0)},
		{"horizontal line f=70", 70, core.NewVec2(0.011, -5.0/70.0), core.NewVec2(0, 1)},
		{"corner f=100", 100, core.NewVec2(12.0/100.0, 34.0/100.0), core.NewVec2(1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previous := math.Inf(1)
			for _, h := range []float64{1e-2, 1e-3, 1e-4, 1e-5, 1e-6} {
				step := tt.axis.Multiply(h / tt.frequency)
				left := Value(tt.boundary.Subtract(step), tt.frequency)
				right := Value(tt.boundary.Add(step), tt.frequency)
				diff := math.Abs(right - left)

				assert.LessOrEqual(t, diff, previous+1e-12, "difference must shrink with spacing (h=%g)", h)
				previous = diff
			}
			assert.Less(t, previous, 1e-6, "finite difference at the boundary should vanish")
		})
	}
}

func TestValue_Deterministic(t *testing.T) {
	p := core.NewVec2(0.3141, -0.2718)
	first := Value(p, 70)
	for i := 0; i < 100; i++ {
		if got := Value(p, 70); got != first {
			t.Fatalf("Value changed between calls: %v != %v", got, first)
		}
	}
}
