package renderer

import (
	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/integrator"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

// Compositor turns pixels into colors: it builds AA×AA camera rays per pixel,
// traces them, box-filters the results and applies the output gamma.
// It holds no per-pixel state and is safe for concurrent use.
type Compositor struct {
	camera     *Camera
	integrator integrator.Integrator
	aa         int
	gamma      float64
}

// NewCompositor creates a compositor for a scene using the lensing integrator
func NewCompositor(s *scene.Scene) *Compositor {
	return NewCompositorWith(
		NewCamera(s.Camera),
		integrator.NewLensingIntegratorForScene(s),
		s.SamplingConfig.AA,
		s.Camera.Gamma,
	)
}

// NewCompositorWith creates a compositor from explicit parts
func NewCompositorWith(camera *Camera, integ integrator.Integrator, aa int, gamma float64) *Compositor {
	return &Compositor{
		camera:     camera,
		integrator: integ,
		aa:         max(aa, 1),
		gamma:      gamma,
	}
}

// AA returns the configured sub-samples per axis
func (c *Compositor) AA() int {
	return c.aa
}

// Camera returns the compositor's camera
func (c *Compositor) Camera() *Camera {
	return c.camera
}

// RenderPixel returns the final color of pixel (px, py), row 0 at the top
func (c *Compositor) RenderPixel(px, py int, frame core.FrameParams) core.Color {
	var ps PixelStats
	c.samplePixel(px, py, frame, c.camera.Pose(frame), c.aa, &ps)
	return c.Finalize(ps.GetColor())
}

// Finalize applies output gamma to an averaged linear color and makes it opaque
func (c *Compositor) Finalize(linear core.Color) core.Color {
	out := linear.GammaCorrect(c.gamma)
	out.A = 1
	return out
}

// samplePixel traces the aa×aa sub-samples of a pixel into ps
func (c *Compositor) samplePixel(px, py int, frame core.FrameParams, pose Pose, aa int, ps *PixelStats) {
	frag := FragCoord(px, py, frame.Height)
	resolution := frame.Resolution()
	inv := 1.0 / float64(aa)

	for j := 0; j < aa; j++ {
		for i := 0; i < aa; i++ {
			ray := pose.Ray(frag, resolution, core.NewVec2(float64(i)*inv, float64(j)*inv))
			ps.AddSample(c.integrator.Trace(ray, frame.Time))
		}
	}
}

// SampleTrace describes one traced sub-sample of a pixel
type SampleTrace struct {
	SubPixel core.Vec2              `json:"subPixel"`
	Ray      core.Ray               `json:"ray"`
	Result   integrator.TraceResult `json:"result"`
}

// PixelTrace is the full breakdown of how a pixel got its color
type PixelTrace struct {
	X       int           `json:"x"`
	Y       int           `json:"y"`
	Linear  core.Color    `json:"linear"`
	Color   core.Color    `json:"color"`
	Samples []SampleTrace `json:"samples"`
}

// TracePixel renders a pixel like RenderPixel and keeps every sub-sample's trace
func (c *Compositor) TracePixel(px, py int, frame core.FrameParams) PixelTrace {
	pose := c.camera.Pose(frame)
	frag := FragCoord(px, py, frame.Height)
	resolution := frame.Resolution()
	inv := 1.0 / float64(c.aa)

	trace := PixelTrace{X: px, Y: py}
	var ps PixelStats
	for j := 0; j < c.aa; j++ {
		for i := 0; i < c.aa; i++ {
			sub := core.NewVec2(float64(i)*inv, float64(j)*inv)
			ray := pose.Ray(frag, resolution, sub)
			result := c.integrator.Trace(ray, frame.Time)
			ps.AddSample(result)
			trace.Samples = append(trace.Samples, SampleTrace{SubPixel: sub, Ray: ray, Result: result})
		}
	}

	trace.Linear = ps.GetColor()
	trace.Color = c.Finalize(trace.Linear)
	return trace
}
