package core

import "math"

// Fract returns x - floor(x), in [0,1) for every finite x
func Fract(x float64) float64 {
	return x - math.Floor(x)
}

// Clamp limits x to [lo, hi]
func Clamp(x, lo, hi float64) float64 {
	return max(lo, min(hi, x))
}

// Mix linearly interpolates from a to b by t: a*(1-t) + b*t, exact at both ends
func Mix(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// Mod returns x modulo y with the sign of y, matching floored modulo
func Mod(x, y float64) float64 {
	return x - y*math.Floor(x/y)
}

// SafeDivisor pushes values that are nearly zero away from zero while keeping their sign.
// Zero itself is treated as positive.
func SafeDivisor(x, epsilon float64) float64 {
	if math.Abs(x) >= epsilon {
		return x
	}
	if x < 0 {
		return -epsilon
	}
	return epsilon
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
