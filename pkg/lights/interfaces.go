package lights

import "github.com/df07/go-blackhole-raytracer/pkg/core"

type EnvironmentType string

const (
	EnvironmentTypeStarfield EnvironmentType = "starfield"
	EnvironmentTypeUniform   EnvironmentType = "uniform"
	EnvironmentTypeGradient  EnvironmentType = "gradient"
)

// Environment is the infinitely distant background seen by rays that escape the black hole
type Environment interface {
	Type() EnvironmentType

	// Emit evaluates the background color for a unit direction.
	// The tracer only uses the RGB channels; alpha is informational.
	Emit(direction core.Vec3) core.Color
}

// Texture is a 2D color source addressed by wrapped uv coordinates
type Texture interface {
	Sample(uv core.Vec2) core.Vec3
}
