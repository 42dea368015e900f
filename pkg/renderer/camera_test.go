package renderer

import (
	"math"
	"testing"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
	"github.com/stretchr/testify/assert"
)

// rotateByHand applies the pitch rotation in the yz plane, then yaw in the xz plane
func rotateByHand(v core.Vec3, yaw, pitch float64) core.Vec3 {
	y := v.Y*math.Cos(pitch) - v.Z*math.Sin(pitch)
	z := v.Y*math.Sin(pitch) + v.Z*math.Cos(pitch)
	x := v.X*math.Cos(yaw) - z*math.Sin(yaw)
	z = v.X*math.Sin(yaw) + z*math.Cos(yaw)
	return core.NewVec3(x, y, z)
}

func assertVecInDelta(t *testing.T, want, got core.Vec3, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
	assert.InDelta(t, want.Z, got.Z, delta, "z")
}

func TestRotate(t *testing.T) {
	tests := []struct {
		name       string
		v          core.Vec3
		yaw, pitch float64
	}{
		{"identity", core.NewVec3(1, 2, 3), 0, 0},
		{"quarter yaw", core.NewVec3(1, 0, 0), math.Pi / 2, 0},
		{"quarter pitch", core.NewVec3(0, 1, 0), 0, math.Pi / 2},
		{"both", core.NewVec3(0.3, -0.2, 0.9), 1.1, -2.4},
		{"camera start", core.NewVec3(0, 0.05, -5), 0.35, 3.14 + 0.1 + math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rotate(tt.v, tt.yaw, tt.pitch)
			assertVecInDelta(t, rotateByHand(tt.v, tt.yaw, tt.pitch), got, 1e-12)
			assert.InDelta(t, tt.v.Length(), got.Length(), 1e-12)
		})
	}
}

func TestFragCoord(t *testing.T) {
	assert.Equal(t, core.NewVec2(0.5, 599.5), FragCoord(0, 0, 600))
	assert.Equal(t, core.NewVec2(400.5, 299.5), FragCoord(400, 300, 600))
	assert.Equal(t, core.NewVec2(799.5, 0.5), FragCoord(799, 599, 600))
}

func TestCamera_Pose(t *testing.T) {
	frame := core.NewFrameParams(800, 600, 0)

	t.Run("spin keeps the orbit radius", func(t *testing.T) {
		camera := NewCamera(scene.CameraConfig{PointerMode: scene.PointerModeSpin, Distance: 5, Gamma: 0.6})
		for _, px := range []float64{0, 0.25, 0.5, 1} {
			pose := camera.Pose(frame.WithPointer(px, 0.3, false))
			assert.InDelta(t, math.Hypot(5, 0.05), pose.Position.Length(), 1e-9)
		}
	})

	t.Run("spin rotates by the pointer", func(t *testing.T) {
		camera := NewCamera(scene.CameraConfig{PointerMode: scene.PointerModeSpin, Distance: 5, Gamma: 0.6})
		pose := camera.Pose(frame.WithPointer(0.25, 0.5, false))
		want := rotateByHand(core.NewVec3(0, 0.05, -5), 2*math.Pi*0.25, 2*math.Pi*0.5+0.1+math.Pi)
		assertVecInDelta(t, want, pose.Position, 1e-9)
	})

	t.Run("time yaws the camera", func(t *testing.T) {
		camera := NewCamera(scene.CameraConfig{PointerMode: scene.PointerModeSpin, Distance: 5, Gamma: 0.6})
		later := frame
		later.Time = 10
		pose := camera.Pose(later)
		want := rotateByHand(core.NewVec3(0, 0.05, -5), 1+math.Pi, 0.1+2*math.Pi)
		assertVecInDelta(t, want, pose.Position, 1e-9)
	})

	t.Run("zoom moves along the orbit radius", func(t *testing.T) {
		camera := NewCamera(scene.CameraConfig{PointerMode: scene.PointerModeZoom, Distance: 5, Gamma: 0.6})
		orbit := 20.0*0.5*800/600 - 10
		pose := camera.Pose(frame)
		assert.InDelta(t, math.Hypot(0.05, orbit*orbit*0.05), pose.Position.Length(), 1e-9)

		far := camera.Pose(frame.WithPointer(1, 0.5, false))
		assert.Greater(t, far.Position.Length(), pose.Position.Length())
	})
}

func TestPose_Ray(t *testing.T) {
	camera := NewCamera(scene.CameraConfig{PointerMode: scene.PointerModeSpin, Distance: 5, Gamma: 0.6})
	frame := core.NewFrameParams(800, 600, 2.5)
	pose := camera.Pose(frame)
	resolution := frame.Resolution()

	for _, px := range [][2]int{{0, 0}, {400, 300}, {799, 599}, {123, 456}} {
		ray := pose.Ray(FragCoord(px[0], px[1], 600), resolution, core.NewVec2(0.25, 0.75))
		assert.Equal(t, pose.Position, ray.Origin)
		assert.InDelta(t, 1.0, ray.Direction.Length(), 1e-12)
	}

	// Neighboring sub-samples produce distinct directions
	a := pose.Ray(FragCoord(10, 10, 600), resolution, core.NewVec2(0, 0))
	b := pose.Ray(FragCoord(10, 10, 600), resolution, core.NewVec2(0.5, 0))
	assert.NotEqual(t, a.Direction, b.Direction)
}

func TestPose_CenterRayPointsTowardTheHole(t *testing.T) {
	camera := NewCamera(scene.CameraConfig{PointerMode: scene.PointerModeSpin, Distance: 5, Gamma: 0.6})
	frame := core.NewFrameParams(800, 600, 0)
	pose := camera.Pose(frame)

	ray := pose.Ray(FragCoord(400, 300, 600), frame.Resolution(), core.NewVec2(0.5, 0.5))
	toHole := pose.Position.Negate().Normalize()
	assert.Greater(t, ray.Direction.Dot(toHole), 0.95)
}
