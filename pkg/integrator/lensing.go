package integrator

import (
	"math"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/lights"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

const (
	planeOffset  = 1e-6  // added to ray.y before dividing, as in the step estimate
	minDivisor   = 1e-12 // floor for divisions that could still hit zero
	minDistance2 = 1e-12 // floor for |p|² at the singularity
)

var glowTint = core.NewColor(1.2, 1.1, 1.0, 1.0)

// PathState is the mutable state of one ray while it is being bent around the hole
type PathState struct {
	Position   core.Vec3
	Direction  core.Vec3 // Unit length after every sub-step
	Disk       core.Color
	Glow       core.Color
	Background core.Color // Environment color, sampled on escape
	State      State
	Batches    int
	DiskHits   int
}

// LensingIntegrator bends camera rays with a simplified central force, samples the
// accretion disk at every plane crossing and the background on escape.
type LensingIntegrator struct {
	hole       scene.BlackHole
	disk       *DiskIntegrator
	background lights.Environment
}

// NewLensingIntegrator creates a lensing tracer. A nil disk skips disk sampling and
// a nil background is black.
func NewLensingIntegrator(hole scene.BlackHole, disk *DiskIntegrator, background lights.Environment) *LensingIntegrator {
	return &LensingIntegrator{
		hole:       hole,
		disk:       disk,
		background: background,
	}
}

// NewLensingIntegratorForScene wires the tracer to a scene's hole, disk and background
func NewLensingIntegratorForScene(s *scene.Scene) *LensingIntegrator {
	return NewLensingIntegrator(s.BlackHole, NewDiskIntegrator(s.BlackHole, s.Disk), s.Background)
}

// NewPathState starts a trace from the ray's origin
func NewPathState(ray core.Ray) PathState {
	return PathState{
		Position:  ray.Origin,
		Direction: ray.Direction.Normalize(),
		State:     Tracing,
	}
}

// Trace implements the Integrator interface. It always terminates: after
// MaxBatches batches an unresolved ray ends Exhausted.
func (l *LensingIntegrator) Trace(ray core.Ray, time float64) TraceResult {
	state := NewPathState(ray)
	var result TraceResult

	for state.Batches < l.hole.MaxBatches {
		result = l.Step(&state, time)
		if state.State.Terminal() {
			return result
		}
	}

	state.State = Exhausted
	return l.finish(&state)
}

// Step advances the ray by one batch of sub-steps and classifies it.
// It is a no-op on a terminated state.
func (l *LensingIntegrator) Step(state *PathState, time float64) TraceResult {
	if state.State.Terminal() {
		return l.finish(state)
	}

	for range l.hole.SubSteps {
		l.bend(state)
	}
	state.Batches++

	dist := state.Position.Length()
	switch {
	case dist < l.hole.AbsorbRadius():
		state.State = Absorbed
		return l.finish(state)

	case dist > l.hole.EscapeRadius():
		state.State = Escaped
		if l.background != nil {
			state.Background = l.background.Emit(state.Direction)
		}
		return l.finish(state)

	case math.Abs(state.Position.Y) <= l.hole.PlaneThreshold():
		if l.disk != nil {
			layer := l.disk.Integrate(state.Direction, state.Position, time)
			state.Disk = state.Disk.Under(layer)
		}
		state.DiskHits++

		// Push past the plane so the same crossing is not sampled twice
		state.Position.Y = 0
		nudge := math.Abs(l.hole.PlaneNudge() / core.SafeDivisor(state.Direction.Y+planeOffset, minDivisor))
		state.Position = state.Position.Add(state.Direction.Multiply(nudge))
	}

	return l.finish(state)
}

// bend performs one sub-step: pick the step length, bend the direction toward
// the center, advance, and accumulate glow.
func (l *LensingIntegrator) bend(state *PathState) {
	p := state.Position
	size := l.hole.Size

	d2 := math.Max(p.LengthSquared(), minDistance2)
	inv := 1.0 / math.Sqrt(d2)
	centerDist := d2 * inv

	// Smallest of: reaching the disk plane, half the distance, a quadratic far-field bound
	planeStep := 0.92 * math.Abs(p.Y/core.SafeDivisor(state.Direction.Y+planeOffset, minDivisor))
	step := min(planeStep, centerDist*0.5, centerDist*0.1+0.05*centerDist*centerDist/size)

	inv2 := inv * inv
	bend := step * inv2 * size * l.hole.BendStrength
	state.Direction = state.Direction.Subtract(p.Multiply(bend * inv)).Normalize()
	state.Position = p.Add(state.Direction.Multiply(step))

	glow := 0.01 * step * inv2 * inv2 * core.Clamp(centerDist*2.0-1.2, 0, 1)
	state.Glow = state.Glow.Add(glowTint.Multiply(glow))
}

// finish builds the result for the current state
func (l *LensingIntegrator) finish(state *PathState) TraceResult {
	disk := state.Disk
	glow := state.Glow.RGB()
	transmit := 1 - disk.A

	var rgb core.Vec3
	switch state.State {
	case Absorbed:
		rgb = disk.RGB().Multiply(disk.A).Add(glow.Multiply(transmit))
	case Escaped:
		rgb = disk.RGB().Multiply(disk.A).Add(state.Background.RGB().Add(glow).Multiply(transmit))
	case Exhausted:
		rgb = disk.RGB().Add(glow.Multiply(disk.A + state.Glow.A))
	default:
		rgb = disk.RGB().Add(glow.Multiply(transmit))
	}

	return TraceResult{
		Color:         core.ColorFromVec3(rgb, 1),
		State:         state.State,
		Batches:       state.Batches,
		DiskHits:      state.DiskHits,
		FinalPosition: state.Position,
		Disk:          disk,
		Glow:          state.Glow,
		Background:    state.Background,
	}
}
