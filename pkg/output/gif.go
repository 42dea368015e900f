package output

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"path/filepath"

	"github.com/df07/go-blackhole-raytracer/pkg/renderer"
)

// GIFWriter collects frames for an animated GIF
type GIFWriter struct {
	anim  *gif.GIF
	delay int // 100ths of a second per frame (e.g., 4 => 25 fps)
}

// NewGIFWriter creates an empty looping animation at the given frame rate
func NewGIFWriter(fps float64) *GIFWriter {
	delay := 4
	if fps > 0 {
		delay = max(int(100/fps+0.5), 1)
	}
	return &GIFWriter{
		anim:  &gif.GIF{LoopCount: 0},
		delay: delay,
	}
}

// Delay returns the per-frame delay in 100ths of a second
func (g *GIFWriter) Delay() int {
	return g.delay
}

// Len returns the number of frames added so far
func (g *GIFWriter) Len() int {
	return len(g.anim.Image)
}

// AddFrame quantizes the buffer to the Plan 9 palette with Floyd-Steinberg
// dithering and appends it. The buffer may be reused afterwards.
func (g *GIFWriter) AddFrame(buffer *renderer.FrameBuffer) {
	rgba := buffer.ToRGBA()
	paletted := image.NewPaletted(rgba.Bounds(), palette.Plan9)
	draw.FloydSteinberg.Draw(paletted, paletted.Bounds(), rgba, image.Point{})

	g.anim.Image = append(g.anim.Image, paletted)
	g.anim.Delay = append(g.anim.Delay, g.delay)
}

// Encode writes the animation
func (g *GIFWriter) Encode(w io.Writer) error {
	if len(g.anim.Image) == 0 {
		return fmt.Errorf("animation has no frames")
	}
	return gif.EncodeAll(w, g.anim)
}

// Save writes the animation to path, creating parent directories
func (g *GIFWriter) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := g.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
