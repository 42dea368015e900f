package lights

import "github.com/df07/go-blackhole-raytracer/pkg/core"

// GradientEnvironment blends between two colors by the direction's height.
// Useful for checking how strongly the lens distorts a known background.
type GradientEnvironment struct {
	topColor    core.Vec3
	bottomColor core.Vec3
}

// NewGradientEnvironment creates a vertical gradient background
func NewGradientEnvironment(topColor, bottomColor core.Vec3) *GradientEnvironment {
	return &GradientEnvironment{topColor: topColor, bottomColor: bottomColor}
}

func (g *GradientEnvironment) Type() EnvironmentType {
	return EnvironmentTypeGradient
}

// Emit implements the Environment interface
func (g *GradientEnvironment) Emit(direction core.Vec3) core.Color {
	t := 0.5 * (direction.Normalize().Y + 1.0) // Map Y from [-1,1] to [0,1]
	return core.ColorFromVec3(g.bottomColor.Mix(g.topColor, t), 1)
}
