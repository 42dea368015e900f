package core

import "math"

// Color is an RGBA color with float components. Accumulated disk radiance is
// premultiplied; final pixel colors are gamma corrected with A = 1.
type Color struct {
	R, G, B, A float64
}

// NewColor creates a new Color
func NewColor(r, g, b, a float64) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// ColorFromVec3 builds a color from an RGB vector and an alpha value
func ColorFromVec3(rgb Vec3, a float64) Color {
	return Color{R: rgb.X, G: rgb.Y, B: rgb.Z, A: a}
}

// RGB returns the color channels as a vector
func (c Color) RGB() Vec3 {
	return Vec3{X: c.R, Y: c.G, Z: c.B}
}

// Add returns the component-wise sum, alpha included
func (c Color) Add(other Color) Color {
	return Color{c.R + other.R, c.G + other.G, c.B + other.B, c.A + other.A}
}

// Multiply scales every component, alpha included
func (c Color) Multiply(scalar float64) Color {
	return Color{c.R * scalar, c.G * scalar, c.B * scalar, c.A * scalar}
}

// Clamp limits every component to [lo, hi]
func (c Color) Clamp(lo, hi float64) Color {
	return Color{
		R: Clamp(c.R, lo, hi),
		G: Clamp(c.G, lo, hi),
		B: Clamp(c.B, lo, hi),
		A: Clamp(c.A, lo, hi),
	}
}

// Under composites layer beneath the accumulated color c (front-to-back order):
// the nearer accumulation keeps its contribution, the layer fills what is left.
func (c Color) Under(layer Color) Color {
	transmit := 1 - c.A
	return Color{
		R: layer.R*transmit + c.R,
		G: layer.G*transmit + c.G,
		B: layer.B*transmit + c.B,
		A: c.A + layer.A*transmit,
	}
}

// Over blends a layer with opacity alpha on top of c using standard over compositing.
func (c Color) Over(layer Vec3, alpha float64) Color {
	return Color{
		R: layer.X*alpha + c.R*(1-alpha),
		G: layer.Y*alpha + c.G*(1-alpha),
		B: layer.Z*alpha + c.B*(1-alpha),
		A: c.A*(1-alpha) + alpha,
	}
}

// GammaCorrect raises the color channels to the given exponent, leaving alpha untouched
func (c Color) GammaCorrect(exponent float64) Color {
	rgb := c.RGB().Pow(exponent)
	return Color{R: rgb.X, G: rgb.Y, B: rgb.Z, A: c.A}
}

// Luminance returns the perceptual luminance of the color channels
func (c Color) Luminance() float64 {
	return c.RGB().Luminance()
}

// IsFinite reports whether every component is a finite number
func (c Color) IsFinite() bool {
	return isFinite(c.R) && isFinite(c.G) && isFinite(c.B) && isFinite(c.A)
}

// Hex formats the clamped color as #rrggbb
func (c Color) Hex() string {
	const digits = "0123456789abcdef"
	out := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range [3]float64{c.R, c.G, c.B} {
		b := uint8(math.Round(Clamp(v, 0, 1) * 255))
		out[1+i*2] = digits[b>>4]
		out[2+i*2] = digits[b&0x0f]
	}
	return string(out)
}
