package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
)

// FrameBuffer is a row-major float RGBA image, row 0 at the top.
// Tiles write disjoint regions, so concurrent writers need no locking.
type FrameBuffer struct {
	Width  int
	Height int
	Pix    []float32 // 4 components per pixel
}

// NewFrameBuffer allocates a cleared buffer
func NewFrameBuffer(width, height int) *FrameBuffer {
	return &FrameBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*4),
	}
}

// Set stores the color of pixel (x, y)
func (fb *FrameBuffer) Set(x, y int, c core.Color) {
	i := (y*fb.Width + x) * 4
	fb.Pix[i+0] = float32(c.R)
	fb.Pix[i+1] = float32(c.G)
	fb.Pix[i+2] = float32(c.B)
	fb.Pix[i+3] = float32(c.A)
}

// At returns the color of pixel (x, y)
func (fb *FrameBuffer) At(x, y int) core.Color {
	i := (y*fb.Width + x) * 4
	return core.NewColor(float64(fb.Pix[i]), float64(fb.Pix[i+1]), float64(fb.Pix[i+2]), float64(fb.Pix[i+3]))
}

// Bounds returns the buffer rectangle
func (fb *FrameBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.Width, fb.Height)
}

// ToRGBA converts the whole buffer to 8-bit RGBA
func (fb *FrameBuffer) ToRGBA() *image.RGBA {
	return fb.RegionToRGBA(fb.Bounds())
}

// RegionToRGBA converts part of the buffer to an 8-bit image with its origin at (0,0)
func (fb *FrameBuffer) RegionToRGBA(bounds image.Rectangle) *image.RGBA {
	bounds = bounds.Intersect(fb.Bounds())
	img := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, toRGBA8(fb.At(x, y)))
		}
	}
	return img
}

// Luminance returns the per-pixel luminance, row-major
func (fb *FrameBuffer) Luminance() []float64 {
	out := make([]float64, fb.Width*fb.Height)
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			out[y*fb.Width+x] = fb.At(x, y).Luminance()
		}
	}
	return out
}

func toRGBA8(c core.Color) color.RGBA {
	return color.RGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: to8(c.A),
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(core.Clamp(v, 0, 1) * 255))
}
