// Package noise provides the deterministic hash and value noise that every
// procedural texture in the renderer is built on.
package noise

import (
	"math"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
)

// hashScale spreads sin(x) over enough integer periods that fract() looks random
const hashScale = 152754.742

// Hash maps a scalar to a pseudo-random value in [0,1).
// The result depends only on x, never on process state.
func Hash(x float64) float64 {
	return core.Fract(math.Sin(x) * hashScale)
}

// Hash2 maps a 2D point to [0,1) by chaining both components through Hash
func Hash2(p core.Vec2) float64 {
	return Hash(p.X + Hash(p.Y))
}

// Value samples bilinearly interpolated value noise at p scaled by frequency f.
// Corner values come from Hash2 on the integer lattice and the weights use the
// smooth 3w²-2w³ curve, so the result is continuous across cell boundaries.
func Value(p core.Vec2, f float64) float64 {
	scaled := p.Multiply(f)
	cell := scaled.Floor()

	bl := Hash2(cell)
	br := Hash2(cell.Add(core.NewVec2(1, 0)))
	tl := Hash2(cell.Add(core.NewVec2(0, 1)))
	tr := Hash2(cell.Add(core.NewVec2(1, 1)))

	w := scaled.Subtract(cell)
	w.X = smooth(w.X)
	w.Y = smooth(w.Y)

	bottom := core.Mix(bl, br, w.X)
	top := core.Mix(tl, tr, w.X)
	return core.Mix(bottom, top, w.Y)
}

func smooth(w float64) float64 {
	return (3.0 - 2.0*w) * w * w
}
