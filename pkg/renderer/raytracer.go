package renderer

import (
	"image"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

// Raytracer renders frames on the calling goroutine, one pixel at a time.
// It is the reference the tiled renderers must agree with.
type Raytracer struct {
	scene      *scene.Scene
	compositor *Compositor
}

// NewRaytracer creates a new sequential raytracer
func NewRaytracer(s *scene.Scene) *Raytracer {
	return &Raytracer{
		scene:      s,
		compositor: NewCompositor(s),
	}
}

// RenderFrame renders every pixel of the frame into a new buffer
func (rt *Raytracer) RenderFrame(frame core.FrameParams) (*FrameBuffer, RenderStats, error) {
	if err := frame.Validate(); err != nil {
		return nil, RenderStats{}, err
	}

	buffer := NewFrameBuffer(frame.Width, frame.Height)
	pose := rt.compositor.Camera().Pose(frame)
	stats := NewTileRenderer(rt.compositor).RenderTileBounds(buffer.Bounds(), frame, pose, rt.compositor.AA(), buffer)
	return buffer, stats, nil
}

// RenderImage renders the scene's configured still frame to an 8-bit image
func (rt *Raytracer) RenderImage() (*image.RGBA, RenderStats, error) {
	buffer, stats, err := rt.RenderFrame(rt.scene.FrameParams())
	if err != nil {
		return nil, stats, err
	}
	return buffer.ToRGBA(), stats, nil
}
