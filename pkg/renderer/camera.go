package renderer

import (
	"math"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	framingCos = 0.985 // fixed roll applied to fragment coordinates
	framingSin = 0.174
)

// framingShift offsets the rolled frame, as a fraction of the resolution
var framingShift = core.NewVec2(-0.06, 0.12)

// Camera orbits the black hole. Pointer Y sets the polar angle; pointer X spins
// the camera around the hole or moves it along the orbit radius depending on the
// configured PointerMode. Time slowly yaws the view.
type Camera struct {
	config scene.CameraConfig
}

// NewCamera creates a camera from its configuration
func NewCamera(config scene.CameraConfig) *Camera {
	return &Camera{config: config}
}

// Pose is the camera placement for one frame
type Pose struct {
	Position core.Vec3
	rotation mgl64.Mat3 // applied to camera-space ray directions
}

// Pose computes where the camera is and how it is oriented for a frame
func (c *Camera) Pose(frame core.FrameParams) Pose {
	height := float64(frame.Height)
	width := float64(frame.Width)

	yaw := frame.Time * 0.1
	pitch := 2.0*(frame.PointerY*height)/height*math.Pi + 0.1 + math.Pi

	var position core.Vec3
	switch c.config.PointerMode {
	case scene.PointerModeZoom:
		orbit := 20.0*(frame.PointerX*width)/height - 10.0
		position = core.NewVec3(0, 0.05, -orbit*orbit*0.05)
	default:
		yaw += 2.0 * math.Pi * frame.PointerX
		position = core.NewVec3(0, 0.05, -c.config.Distance)
	}

	dist := position.Length()
	position = Rotate(position, yaw, pitch)

	// Tilt the view back toward the hole, more strongly when close
	offset := math.Pi
	if dist > 0 {
		offset = min(0.3/dist, math.Pi)
	}

	return Pose{
		Position: position,
		rotation: rotationMatrix(yaw-offset, pitch-offset*0.5),
	}
}

// Ray builds the camera ray through a fragment coordinate (origin bottom-left)
// with a sub-pixel offset in [0,1)².
func (p Pose) Ray(fragCoord, resolution, subPixel core.Vec2) core.Ray {
	rolled := core.NewVec2(
		fragCoord.X*framingCos+fragCoord.Y*framingSin,
		fragCoord.Y*framingCos-fragCoord.X*framingSin,
	).Add(core.NewVec2(framingShift.X*resolution.X, framingShift.Y*resolution.Y))

	plane := rolled.Subtract(resolution.Multiply(0.5)).Add(subPixel).Multiply(1.0 / resolution.X)
	dir := core.NewVec3(plane.X, plane.Y, 1.0).Normalize()

	return core.NewRay(p.Position, fromMgl(p.rotation.Mul3x1(toMgl(dir))))
}

// FragCoord converts a pixel with row 0 at the top to a pixel-center fragment
// coordinate with the origin at the bottom-left.
func FragCoord(px, py, height int) core.Vec2 {
	return core.NewVec2(float64(px)+0.5, float64(height-py)-0.5)
}

// Rotate turns v in the yz plane by pitch, then in the xz plane by yaw
func Rotate(v core.Vec3, yaw, pitch float64) core.Vec3 {
	return fromMgl(rotationMatrix(yaw, pitch).Mul3x1(toMgl(v)))
}

func rotationMatrix(yaw, pitch float64) mgl64.Mat3 {
	// Rotate3DY turns z toward x, the opposite sense of the xz rotation
	return mgl64.Rotate3DY(-yaw).Mul3(mgl64.Rotate3DX(pitch))
}

func toMgl(v core.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}
