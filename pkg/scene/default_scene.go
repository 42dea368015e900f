package scene

import (
	"fmt"

	"github.com/df07/go-blackhole-raytracer/pkg/lights"
)

// DefaultSceneName is the preset used when nothing else is requested
const DefaultSceneName = "default"

type preset struct {
	name        string
	displayName string
	build       func() Config
}

var presets = []preset{
	{DefaultSceneName, "Default Black Hole", NewDefaultConfig},
	{"edge-on", "Edge-on Disk", NewEdgeOnConfig},
	{"top-down", "Top-down Disk", NewTopDownConfig},
	{"hires-aa", "High Resolution 3x AA", NewHiresAAConfig},
}

// NewDefaultConfig creates the reference black hole: a size 0.3 hole with a
// 12 layer disk, seen slightly from above with the pointer centered.
func NewDefaultConfig() Config {
	return Config{
		Name:        DefaultSceneName,
		Description: "Lensed accretion disk over a procedural starfield",
		Render: SamplingConfig{
			Width:    800,
			Height:   600,
			AA:       2,
			TileSize: 64,
		},
		Camera: CameraConfig{
			PointerMode: PointerModeSpin,
			Distance:    5.0,
			Gamma:       0.6,
		},
		Frame: FrameConfig{
			PointerX: 0.5,
			PointerY: 0.5,
		},
		BlackHole: BlackHole{
			Size:                0.3,
			BendStrength:        0.625,
			AbsorbScale:         0.1,
			EscapeScale:         1000,
			PlaneThresholdScale: 0.002,
			PlaneNudgeScale:     0.001,
			MaxBatches:          20,
			SubSteps:            6,
		},
		Disk: Disk{
			Speed: 3.0,
			Steps: 12,
		},
		Background: BackgroundConfig{
			Type:           lights.EnvironmentTypeStarfield,
			StarDensity:    100,
			NebulaStrength: 0.2,
			NebulaGain:     1,
		},
	}
}

// NewEdgeOnConfig places the camera in the disk plane so the far side of the
// disk is lensed into an arc over the shadow.
func NewEdgeOnConfig() Config {
	cfg := NewDefaultConfig()
	cfg.Name = "edge-on"
	cfg.Description = "Camera level with the disk plane"
	cfg.Frame.PointerY = 0.484 // polar angle of a full turn
	return cfg
}

// NewTopDownConfig looks down the rotation axis
func NewTopDownConfig() Config {
	cfg := NewDefaultConfig()
	cfg.Name = "top-down"
	cfg.Description = "Camera above the pole looking down at the disk"
	cfg.Frame.PointerY = 0.734 // polar angle of a quarter turn past the plane
	return cfg
}

// NewHiresAAConfig is the default view at a higher resolution with 3x3 supersampling
func NewHiresAAConfig() Config {
	cfg := NewDefaultConfig()
	cfg.Name = "hires-aa"
	cfg.Description = "1920x1080 with 3x3 supersampling"
	cfg.Render.Width = 1920
	cfg.Render.Height = 1080
	cfg.Render.AA = 3
	return cfg
}

// Preset returns the configuration of a built-in scene
func Preset(name string) (Config, error) {
	for _, p := range presets {
		if p.name == name {
			return p.build(), nil
		}
	}
	return Config{}, fmt.Errorf("%w: %q", ErrUnknownScene, name)
}

// PresetNames lists the built-in scenes in display order
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.name
	}
	return names
}
