package scene

import (
	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/lights"
)

// Scene contains all the elements needed for rendering one black hole view
type Scene struct {
	Name           string
	Description    string
	BlackHole      BlackHole
	Disk           Disk
	Background     lights.Environment
	Camera         CameraConfig
	SamplingConfig SamplingConfig
	Frame          FrameConfig
}

// BlackHole holds the lensing parameters. Every radius scales with Size.
type BlackHole struct {
	Size                float64 `toml:"size" yaml:"size" json:"size"`
	BendStrength        float64 `toml:"bendStrength" yaml:"bendStrength" json:"bendStrength"`                      // Force constant multiplier on Size
	AbsorbScale         float64 `toml:"absorbScale" yaml:"absorbScale" json:"absorbScale"`                         // Absorption radius / Size
	EscapeScale         float64 `toml:"escapeScale" yaml:"escapeScale" json:"escapeScale"`                         // Escape radius / Size
	PlaneThresholdScale float64 `toml:"planeThresholdScale" yaml:"planeThresholdScale" json:"planeThresholdScale"` // Disk crossing threshold / Size
	PlaneNudgeScale     float64 `toml:"planeNudgeScale" yaml:"planeNudgeScale" json:"planeNudgeScale"`             // Nudge after a crossing / Size
	MaxBatches          int     `toml:"maxBatches" yaml:"maxBatches" json:"maxBatches"`
	SubSteps            int     `toml:"subSteps" yaml:"subSteps" json:"subSteps"`
}

// AbsorbRadius is the distance below which a ray is swallowed
func (b BlackHole) AbsorbRadius() float64 { return b.Size * b.AbsorbScale }

// EscapeRadius is the distance beyond which a ray samples the background
func (b BlackHole) EscapeRadius() float64 { return b.Size * b.EscapeScale }

// PlaneThreshold is the |y| within which the ray counts as crossing the disk
func (b BlackHole) PlaneThreshold() float64 { return b.Size * b.PlaneThresholdScale }

// PlaneNudge is how far past the plane a ray is pushed after a crossing
func (b BlackHole) PlaneNudge() float64 { return b.Size * b.PlaneNudgeScale }

// Disk holds the accretion disk texture parameters
type Disk struct {
	Speed float64 `toml:"speed" yaml:"speed" json:"speed"` // Rotation speed
	Steps int     `toml:"steps" yaml:"steps" json:"steps"` // Texture layers marched per crossing
}

// PointerMode selects what horizontal pointer movement does to the camera
type PointerMode string

const (
	// PointerModeSpin yaws the camera around the hole at a fixed distance
	PointerModeSpin PointerMode = "spin"
	// PointerModeZoom moves the camera along its orbit radius
	PointerModeZoom PointerMode = "zoom"
)

// CameraConfig describes the orbiting camera
type CameraConfig struct {
	PointerMode PointerMode `toml:"pointerMode" yaml:"pointerMode" json:"pointerMode"`
	Distance    float64     `toml:"distance" yaml:"distance" json:"distance"` // Orbit radius in spin mode
	Gamma       float64     `toml:"gamma" yaml:"gamma" json:"gamma"`          // Output exponent
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width      int `toml:"width" yaml:"width" json:"width"`
	Height     int `toml:"height" yaml:"height" json:"height"`
	AA         int `toml:"aa" yaml:"aa" json:"aa"`                         // Sub-samples per axis
	Passes     int `toml:"passes" yaml:"passes" json:"passes"`             // Progressive passes, 0 = one per AA level
	TileSize   int `toml:"tileSize" yaml:"tileSize" json:"tileSize"`       // Tile edge in pixels
	NumWorkers int `toml:"numWorkers" yaml:"numWorkers" json:"numWorkers"` // 0 = runtime.NumCPU()
}

// FrameConfig is the still frame a scene renders when no harness drives it
type FrameConfig struct {
	Time     float64 `toml:"time" yaml:"time" json:"time"`
	PointerX float64 `toml:"pointerX" yaml:"pointerX" json:"pointerX"`
	PointerY float64 `toml:"pointerY" yaml:"pointerY" json:"pointerY"`
}

// FrameParams builds the frame parameters for the scene's configured still
func (s *Scene) FrameParams() core.FrameParams {
	return core.NewFrameParams(s.SamplingConfig.Width, s.SamplingConfig.Height, s.Frame.Time).
		WithPointer(s.Frame.PointerX, s.Frame.PointerY, false)
}

// ProgressiveLevels returns the AA factor of each progressive pass, ending at the configured AA
func (c SamplingConfig) ProgressiveLevels() []int {
	aa := max(c.AA, 1)
	passes := c.Passes
	if passes <= 0 || passes > aa {
		passes = aa
	}

	levels := make([]int, passes)
	for i := range levels {
		levels[i] = ((i+1)*aa + passes - 1) / passes // ceil((i+1)*aa/passes)
	}
	return levels
}
