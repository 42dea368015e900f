package core

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidViewport is returned when the viewport has a non-positive dimension
	ErrInvalidViewport = errors.New("viewport dimensions must be positive")
	// ErrInvalidTime is returned for negative or non-finite frame times
	ErrInvalidTime = errors.New("frame time must be finite and non-negative")
	// ErrInvalidPointer is returned for pointer coordinates outside [0,1]
	ErrInvalidPointer = errors.New("pointer position must be within [0,1]")
)

// FrameParams is the read-only snapshot a harness hands to the renderer once per frame.
type FrameParams struct {
	Time           float64 // Elapsed seconds, monotonic
	Width          int     // Viewport width in pixels
	Height         int     // Viewport height in pixels
	PointerX       float64 // Normalized pointer X in [0,1]
	PointerY       float64 // Normalized pointer Y in [0,1]
	PointerPressed bool
}

// NewFrameParams creates frame parameters with the pointer at the viewport center
func NewFrameParams(width, height int, time float64) FrameParams {
	return FrameParams{
		Time:     time,
		Width:    width,
		Height:   height,
		PointerX: 0.5,
		PointerY: 0.5,
	}
}

// Validate rejects parameters the renderer cannot evaluate
func (f FrameParams) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidViewport, f.Width, f.Height)
	}
	if math.IsNaN(f.Time) || math.IsInf(f.Time, 0) || f.Time < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTime, f.Time)
	}
	if !(f.PointerX >= 0 && f.PointerX <= 1 && f.PointerY >= 0 && f.PointerY <= 1) {
		return fmt.Errorf("%w: got (%v, %v)", ErrInvalidPointer, f.PointerX, f.PointerY)
	}
	return nil
}

// WithPointer returns a copy with the pointer clamped into [0,1]
func (f FrameParams) WithPointer(x, y float64, pressed bool) FrameParams {
	if math.IsNaN(x) {
		x = 0.5
	}
	if math.IsNaN(y) {
		y = 0.5
	}
	f.PointerX = Clamp(x, 0, 1)
	f.PointerY = Clamp(y, 0, 1)
	f.PointerPressed = pressed
	return f
}

// Resolution returns the viewport size as a vector
func (f FrameParams) Resolution() Vec2 {
	return Vec2{X: float64(f.Width), Y: float64(f.Height)}
}

// Clock accumulates frame time the way an interactive harness does: the timer
// driving it is reset every tick while the elapsed total only grows.
type Clock struct {
	elapsed float64
}

// Advance adds dt seconds (negative or non-finite deltas are ignored) and returns the total
func (c *Clock) Advance(dt float64) float64 {
	if dt > 0 && !math.IsInf(dt, 0) {
		c.elapsed += dt
	}
	return c.elapsed
}

// Elapsed returns the accumulated time in seconds
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}
