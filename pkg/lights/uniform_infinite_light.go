package lights

import "github.com/df07/go-blackhole-raytracer/pkg/core"

// UniformEnvironment emits the same color in every direction
type UniformEnvironment struct {
	emission core.Vec3
}

// NewUniformEnvironment creates a constant background
func NewUniformEnvironment(emission core.Vec3) *UniformEnvironment {
	return &UniformEnvironment{emission: emission}
}

func (u *UniformEnvironment) Type() EnvironmentType {
	return EnvironmentTypeUniform
}

// Emit implements the Environment interface
func (u *UniformEnvironment) Emit(direction core.Vec3) core.Color {
	return core.ColorFromVec3(u.emission, 1)
}
