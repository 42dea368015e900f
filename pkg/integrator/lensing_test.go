package integrator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/lights"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultTracer() *LensingIntegrator {
	cfg := scene.NewDefaultConfig()
	return NewLensingIntegrator(cfg.BlackHole, NewDiskIntegrator(cfg.BlackHole, cfg.Disk), lights.NewStarfield())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "tracing", Tracing.String())
	assert.Equal(t, "absorbed", Absorbed.String())
	assert.Equal(t, "escaped", Escaped.String())
	assert.Equal(t, "exhausted", Exhausted.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.False(t, Tracing.Terminal())
	assert.True(t, Exhausted.Terminal())
}

func TestLensingIntegrator_Scenarios(t *testing.T) {
	tracer := newDefaultTracer()

	tests := []struct {
		name      string
		ray       core.Ray
		wantState State
	}{
		{
			name:      "aimed at the center from inside the absorption zone",
			ray:       core.NewRay(core.NewVec3(0.01, 0.005, 0), core.NewVec3(0, 0, 1)),
			wantState: Absorbed,
		},
		{
			name:      "starting almost at the singularity",
			ray:       core.NewRay(core.NewVec3(0, 0, 0.02), core.NewVec3(1, 0, 0)),
			wantState: Absorbed,
		},
		{
			name:      "far away with no meaningful bending",
			ray:       core.NewRay(core.NewVec3(0, 0, -1e4), core.NewVec3(0.3, 0.2, 1)),
			wantState: Escaped,
		},
		{
			name:      "camera looking straight up",
			ray:       core.NewRay(core.NewVec3(0, 0.05, -5), core.NewVec3(0, 1, 0)),
			wantState: Escaped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tracer.Trace(tt.ray, 0)
			assert.Equal(t, tt.wantState, result.State)
			assert.Equal(t, 1.0, result.Color.A)
			assert.True(t, result.Color.IsFinite())
		})
	}
}

func TestLensingIntegrator_AbsorbedIsOpaqueAndDark(t *testing.T) {
	result := newDefaultTracer().Trace(core.NewRay(core.NewVec3(0.01, 0.005, 0), core.NewVec3(0, 0, 1)), 0)
	require.Equal(t, Absorbed, result.State)
	assert.Equal(t, 1, result.Batches)
	assert.Equal(t, 1.0, result.Color.A)
	assert.Less(t, result.Color.RGB().Length(), 1e-6)
	assert.Less(t, result.FinalPosition.Length(), 0.03)
}

func TestLensingIntegrator_FarEscapeIsBackgroundDominated(t *testing.T) {
	result := newDefaultTracer().Trace(core.NewRay(core.NewVec3(0, 0, -1e4), core.NewVec3(0.3, 0.2, 1)), 0)
	require.Equal(t, Escaped, result.State)
	assert.Equal(t, 1, result.Batches)
	assert.Zero(t, result.DiskHits)
	assert.Zero(t, result.Disk.A)

	bg := result.Background
	assert.Greater(t, bg.Luminance(), 0.0)
	assert.InDelta(t, bg.R, result.Color.R, 1e-12)
	assert.InDelta(t, bg.G, result.Color.G, 1e-12)
	assert.InDelta(t, bg.B, result.Color.B, 1e-12)
}

func TestLensingIntegrator_DiskCrossing(t *testing.T) {
	origin := core.NewVec3(0, 1, -2)
	target := core.NewVec3(1.2, 0, 0.3)
	result := newDefaultTracer().Trace(core.NewRay(origin, target.Subtract(origin)), 0)

	assert.Equal(t, Escaped, result.State)
	assert.GreaterOrEqual(t, result.DiskHits, 1)
	assert.Greater(t, result.Disk.A, 0.5)
	assert.LessOrEqual(t, result.Disk.A, 1.0)
	assert.Greater(t, result.Color.Luminance(), 0.5, "the disk should dominate this pixel")
}

func TestLensingIntegrator_WithoutDiskIgnoresCrossings(t *testing.T) {
	cfg := scene.NewDefaultConfig()
	tracer := NewLensingIntegrator(cfg.BlackHole, nil, nil)

	origin := core.NewVec3(0, 1, -2)
	target := core.NewVec3(1.2, 0, 0.3)
	result := tracer.Trace(core.NewRay(origin, target.Subtract(origin)), 0)

	assert.Equal(t, Escaped, result.State)
	assert.GreaterOrEqual(t, result.DiskHits, 1)
	assert.Zero(t, result.Disk.A)
	assert.Equal(t, core.Color{}, result.Background)
}

func TestLensingIntegrator_Exhausted(t *testing.T) {
	cfg := scene.NewDefaultConfig()
	cfg.BlackHole.MaxBatches = 1
	tracer := NewLensingIntegrator(cfg.BlackHole, NewDiskIntegrator(cfg.BlackHole, cfg.Disk), lights.NewStarfield())

	result := tracer.Trace(core.NewRay(core.NewVec3(0, 0.05, -5), core.NewVec3(1, 0, 0)), 0)
	require.Equal(t, Exhausted, result.State)
	assert.Equal(t, 1, result.Batches)
	assert.Equal(t, 1.0, result.Color.A)

	// With no disk contribution the fallback is glow scaled by its own alpha
	glow := result.Glow
	assert.InDelta(t, glow.R*glow.A, result.Color.R, 1e-15)
	assert.InDelta(t, glow.G*glow.A, result.Color.G, 1e-15)
	assert.InDelta(t, glow.B*glow.A, result.Color.B, 1e-15)
}

func TestLensingIntegrator_StepOnTerminatedStateIsNoOp(t *testing.T) {
	tracer := newDefaultTracer()
	state := NewPathState(core.NewRay(core.NewVec3(0.01, 0.005, 0), core.NewVec3(0, 0, 1)))

	first := tracer.Step(&state, 0)
	require.Equal(t, Absorbed, first.State)

	second := tracer.Step(&state, 0)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, state.Batches)
}

func TestLensingIntegrator_AlwaysTerminates(t *testing.T) {
	tracer := newDefaultTracer()
	random := rand.New(rand.NewSource(42))
	maxBatches := scene.NewDefaultConfig().BlackHole.MaxBatches

	for i := 0; i < 2000; i++ {
		// Start on a sphere at the default camera distance, aimed anywhere
		origin := core.NewVec3(random.NormFloat64(), random.NormFloat64(), random.NormFloat64()).Normalize().Multiply(5)
		dir := core.NewVec3(random.NormFloat64(), random.NormFloat64(), random.NormFloat64())
		if dir.Length() == 0 {
			continue
		}
		time := random.Float64() * 100

		result := tracer.Trace(core.NewRay(origin, dir), time)
		if !result.State.Terminal() {
			t.Fatalf("ray %d ended in non-terminal state %v", i, result.State)
		}
		if result.Batches > maxBatches {
			t.Fatalf("ray %d used %d batches, bound is %d", i, result.Batches, maxBatches)
		}
		if !result.Color.IsFinite() || result.Color.A != 1 {
			t.Fatalf("ray %d produced invalid color %v", i, result.Color)
		}
		if result.Disk.A < 0 || result.Disk.A > 1+1e-12 {
			t.Fatalf("ray %d accumulated disk alpha %v", i, result.Disk.A)
		}
	}
}

func TestLensingIntegrator_Deterministic(t *testing.T) {
	ray := core.NewRay(core.NewVec3(0, 1, -2), core.NewVec3(1.2, -1, 2.3))
	a := newDefaultTracer().Trace(ray, 1.5)
	b := newDefaultTracer().Trace(ray, 1.5)
	assert.Equal(t, a, b)
}

func TestLensingIntegrator_DirectionStaysUnit(t *testing.T) {
	tracer := newDefaultTracer()
	state := NewPathState(core.NewRay(core.NewVec3(0.4, 0.3, -3), core.NewVec3(-0.1, -0.1, 1)))

	for !state.State.Terminal() && state.Batches < 20 {
		tracer.Step(&state, 0)
		assert.InDelta(t, 1.0, state.Direction.Length(), 1e-9)
	}
	assert.False(t, math.IsNaN(state.Position.X))
}

func TestState_MarshalText(t *testing.T) {
	text, err := Escaped.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "escaped", string(text))
}
