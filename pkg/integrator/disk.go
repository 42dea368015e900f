package integrator

import (
	"math"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/noise"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

const (
	diskEpsilon  = 1e-6
	rotationWrap = 8192.0 // keeps sin/cos arguments small for long sessions
	noiseFreq    = 70.0
)

var (
	hotInner    = core.NewVec3(1.0, 0.8, 0.0)
	coolOuter   = core.NewVec3(0.5, 0.13, 0.02).Multiply(0.2)
	receding    = core.NewVec3(0.4, 0.2, 0.1)
	approaching = core.NewVec3(1.6, 2.4, 4.0)
	layerShade  = core.NewVec3(0.3, 0.2, 0.15)
)

// DiskIntegrator marches a short window of texture layers around a disk plane
// crossing and composites them front to back.
type DiskIntegrator struct {
	size  float64
	speed float64
	steps int
}

// NewDiskIntegrator creates a disk integrator for the given hole and disk parameters
func NewDiskIntegrator(hole scene.BlackHole, disk scene.Disk) *DiskIntegrator {
	return &DiskIntegrator{
		size:  hole.Size,
		speed: disk.Speed,
		steps: max(disk.Steps, 1),
	}
}

// Integrate returns the premultiplied disk color seen along direction through
// the crossing point. Alpha never exceeds 1 and RGB is clamped to [0,1].
func (d *DiskIntegrator) Integrate(direction, crossing core.Vec3, time float64) core.Color {
	return d.integrate(direction, crossing, time, nil)
}

// integrate runs the layer march, reporting the accumulation after every layer to visit
func (d *DiskIntegrator) integrate(direction, crossing core.Vec3, time float64, visit func(layer int, acc core.Color)) core.Color {
	size := d.size
	steps := float64(d.steps)
	radius := crossing.XZ().Length()

	// Steeper rays cover the disk thickness in fewer units; small radii shrink the step
	step := min(1.0, radius/size*0.5) * size * 0.4 / steps / math.Max(math.Abs(direction.Y), diskEpsilon)

	// Center the sampling window on the crossing
	pos := crossing.Add(direction.Multiply(step * steps * 0.5))

	// Orbital direction is a small rotation of the radial vector
	orbit := core.NewVec2(-crossing.Z*0.01, crossing.X*0.01).Normalize()
	parallel := direction.XZ().Dot(orbit) / math.Sqrt(math.Max(radius, diskEpsilon)) * 0.5
	redshift := core.Clamp((parallel+0.3)*(parallel+0.3), 0, 1)

	distMix := core.Clamp((radius-size*2.0)/size*0.24, 0, 1)
	inside := hotInner.Mix(coolOuter, distMix).
		MultiplyVec(receding.Mix(approaching, redshift)).
		Multiply(1.25)

	rot := core.Mod(time*d.speed, rotationWrap)
	sinRot, cosRot := math.Sincos(rot)

	var acc core.Color
	for i := 0; i < d.steps; i++ {
		pos = pos.Subtract(direction.Multiply(step))
		layer := float64(i)

		intensity := core.Clamp(1.0-math.Abs((layer-0.8)/steps*2.0), 0, 1)
		r := pos.XZ().Length()

		// Fade the disk in past the inner edge and out toward 10x the hole size
		distMult := core.Clamp((r-size*0.75)/size*1.5, 0, 1) *
			core.Clamp((size*10.0-r)/size*0.2, 0, 1)
		distMult *= distMult

		u := r + time*size*0.3 + intensity*size*0.2

		xy := core.NewVec2(
			-pos.Z*sinRot+pos.X*cosRot,
			pos.X*sinRot+pos.Z*cosRot,
		)
		angle := 0.02 * math.Atan2(math.Abs(xy.X), math.Abs(xy.Y))

		p := core.NewVec2(angle, u/size*0.05)
		n := 0.66*noise.Value(p, noiseFreq) + 0.33*noise.Value(p, noiseFreq*2)

		extraWidth := n * (1.0 - core.Clamp(layer/steps*2.0-1.0, 0, 1))
		alpha := core.Clamp(n*(intensity+extraWidth)*(10.0/size+0.01)*step*distMult, 0, 1)

		col := layerShade.MultiplyVec(inside).Mix(inside, min(1.0, intensity*2.0)).Multiply(2.0)
		acc = acc.Over(col, alpha).Clamp(0, 1)

		rel := r / size
		glow := redshift * (intensity + 0.5) / steps * 100.0 * distMult / math.Max(rel*rel, diskEpsilon)
		acc.R += glow
		acc.G += glow
		acc.B += glow

		if visit != nil {
			visit(i, acc)
		}
	}

	acc.R = core.Clamp(acc.R-0.005, 0, 1)
	acc.G = core.Clamp(acc.G-0.005, 0, 1)
	acc.B = core.Clamp(acc.B-0.005, 0, 1)
	return acc
}
