package lights

import (
	"math"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/noise"
)

var (
	warmStar = core.NewVec3(1.0, 0.6, 0.2)
	coolStar = core.NewVec3(0.2, 0.6, 1.0)
)

// Starfield is the procedural background: sparse tinted stars over a faint nebula wash.
// Directions are flattened to 2D by swapping the dominant axis for z, which keeps
// the poles free of the pinching an equirectangular mapping would show.
type Starfield struct {
	// StarDensity scales value^256 before clamping; larger values let more stars through
	StarDensity float64
	// NebulaStrength scales the procedural nebula noise before the ^4 falloff
	NebulaStrength float64
	// NebulaTexture replaces the procedural nebula when set
	NebulaTexture Texture
	// NebulaGain multiplies the textured nebula
	NebulaGain float64
}

// NewStarfield creates the default procedural starfield
func NewStarfield() *Starfield {
	return &Starfield{
		StarDensity:    100,
		NebulaStrength: 0.2,
		NebulaGain:     1,
	}
}

func (s *Starfield) Type() EnvironmentType {
	return EnvironmentTypeStarfield
}

// Emit implements the Environment interface
func (s *Starfield) Emit(direction core.Vec3) core.Color {
	uv := Project(direction)
	stars := s.Stars(uv)

	if s.NebulaTexture != nil {
		texel := s.NebulaTexture.Sample(uv.Multiply(1.5))
		sum := texel.X + texel.Y + texel.Z
		wash := texel.Add(core.NewVec3(sum, sum, sum)).Multiply(0.25)
		rgb := wash.Pow(4).Multiply(s.NebulaGain).Add(stars)
		return core.ColorFromVec3(rgb, wash.Luminance())
	}

	n := noise.Value(uv.Multiply(1.5), 50) * s.NebulaStrength
	wash := math.Pow(n, 4)
	return core.ColorFromVec3(core.NewVec3(wash, wash, wash).Add(stars), n)
}

// Stars returns the tinted star contribution at projected coordinate uv
func (s *Starfield) Stars(uv core.Vec2) core.Vec3 {
	brightness := noise.Value(uv.Multiply(3), 100)
	brightness = core.Clamp(math.Pow(brightness, 256)*s.StarDensity, 0, 1)
	tint := warmStar.Mix(coolStar, noise.Value(uv.Multiply(2), 20))
	return tint.Multiply(brightness)
}

// Project maps a direction onto the 2D background plane: uv = dir.xy, with the
// component along a dominant x (or else y) axis replaced by dir.z.
func Project(direction core.Vec3) core.Vec2 {
	uv := direction.XY()
	if math.Abs(direction.X) > 0.5 {
		uv.X = direction.Z
	} else if math.Abs(direction.Y) > 0.5 {
		uv.Y = direction.Z
	}
	return uv
}
