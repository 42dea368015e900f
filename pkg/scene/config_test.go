package scene

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/lights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	names := PresetNames()
	assert.Equal(t, []string{"default", "edge-on", "top-down", "hires-aa"}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg, err := Preset(name)
			require.NoError(t, err)
			assert.Equal(t, name, cfg.Name)
			require.NoError(t, cfg.Validate())

			s, err := NewScene(cfg)
			require.NoError(t, err)
			assert.Equal(t, lights.EnvironmentTypeStarfield, s.Background.Type())
		})
	}

	_, err := Preset("nope")
	assert.ErrorIs(t, err, ErrUnknownScene)
}

func TestDefaultConfig_ReferenceValues(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, 0.3, cfg.BlackHole.Size)
	assert.InDelta(t, 0.03, cfg.BlackHole.AbsorbRadius(), 1e-12)
	assert.InDelta(t, 300.0, cfg.BlackHole.EscapeRadius(), 1e-9)
	assert.InDelta(t, 0.0006, cfg.BlackHole.PlaneThreshold(), 1e-12)
	assert.InDelta(t, 0.0003, cfg.BlackHole.PlaneNudge(), 1e-12)
	assert.Equal(t, 20, cfg.BlackHole.MaxBatches)
	assert.Equal(t, 6, cfg.BlackHole.SubSteps)
	assert.Equal(t, 12, cfg.Disk.Steps)
	assert.Equal(t, PointerModeSpin, cfg.Camera.PointerMode)
	assert.Equal(t, 0.6, cfg.Camera.Gamma)
}

func TestScene_FrameParams(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Frame = FrameConfig{Time: 2, PointerX: 0.1, PointerY: 0.9}
	s, err := NewScene(cfg)
	require.NoError(t, err)

	frame := s.FrameParams()
	assert.Equal(t, core.FrameParams{Time: 2, Width: 800, Height: 600, PointerX: 0.1, PointerY: 0.9}, frame)
}

func TestSamplingConfig_ProgressiveLevels(t *testing.T) {
	tests := []struct {
		aa, passes int
		want       []int
	}{
		{1, 0, []int{1}},
		{2, 0, []int{1, 2}},
		{4, 0, []int{1, 2, 3, 4}},
		{4, 2, []int{2, 4}},
		{3, 2, []int{2, 3}},
		{8, 3, []int{3, 6, 8}},
		{2, 5, []int{1, 2}},
		{0, 0, []int{1}},
	}

	for _, tt := range tests {
		got := SamplingConfig{AA: tt.aa, Passes: tt.passes}.ProgressiveLevels()
		assert.Equal(t, tt.want, got, "aa=%d passes=%d", tt.aa, tt.passes)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero width", func(c *Config) { c.Render.Width = 0 }},
		{"aa too high", func(c *Config) { c.Render.AA = 9 }},
		{"aa zero", func(c *Config) { c.Render.AA = 0 }},
		{"negative passes", func(c *Config) { c.Render.Passes = -1 }},
		{"zero tile size", func(c *Config) { c.Render.TileSize = 0 }},
		{"unknown pointer mode", func(c *Config) { c.Camera.PointerMode = "orbit" }},
		{"zero gamma", func(c *Config) { c.Camera.Gamma = 0 }},
		{"pointer out of range", func(c *Config) { c.Frame.PointerX = 2 }},
		{"negative time", func(c *Config) { c.Frame.Time = -1 }},
		{"zero size", func(c *Config) { c.BlackHole.Size = 0 }},
		{"nan bend", func(c *Config) { c.BlackHole.BendStrength = math.NaN() }},
		{"absorb beyond escape", func(c *Config) { c.BlackHole.AbsorbScale = 2000 }},
		{"zero batches", func(c *Config) { c.BlackHole.MaxBatches = 0 }},
		{"zero disk steps", func(c *Config) { c.Disk.Steps = 0 }},
		{"infinite disk speed", func(c *Config) { c.Disk.Speed = math.Inf(1) }},
		{"unknown background", func(c *Config) { c.Background.Type = "hdri" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalidConfig)

			_, err = NewScene(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Render.AA = 0
	cfg.Camera.Gamma = -1
	cfg.Disk.Steps = 0

	err := cfg.Validate()
	require.Error(t, err)

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 3)
}

func TestParseConfig_TOML(t *testing.T) {
	data := []byte(`
name = "Close Orbit"
description = "Closer than the default"

[render]
width = 320
height = 200
aa = 3
passes = 2

[camera]
pointerMode = "zoom"

[blackHole]
size = 0.5

[background]
type = "uniform"
color = { r = 0.1, g = 0.2, b = 0.3 }
`)

	cfg, err := ParseConfig(data, "scenes/close.toml")
	require.NoError(t, err)

	assert.Equal(t, "Close Orbit", cfg.Name)
	assert.Equal(t, "Closer than the default", cfg.Description)
	assert.Equal(t, 320, cfg.Render.Width)
	assert.Equal(t, 3, cfg.Render.AA)
	assert.Equal(t, 64, cfg.Render.TileSize, "unset fields keep the base value")
	assert.Equal(t, PointerModeZoom, cfg.Camera.PointerMode)
	assert.Equal(t, 5.0, cfg.Camera.Distance)
	assert.Equal(t, 0.5, cfg.BlackHole.Size)
	assert.Equal(t, 0.625, cfg.BlackHole.BendStrength)
	assert.Equal(t, lights.EnvironmentTypeUniform, cfg.Background.Type)
	assert.Equal(t, RGB{0.1, 0.2, 0.3}, cfg.Background.Color)
	assert.Equal(t, "scenes", cfg.SourceDir)

	s, err := NewScene(cfg)
	require.NoError(t, err)
	assert.Equal(t, lights.EnvironmentTypeUniform, s.Background.Type())
	assert.Equal(t, []int{2, 3}, s.SamplingConfig.ProgressiveLevels())
}

func TestParseConfig_YAMLWithBase(t *testing.T) {
	data := []byte(`
base: hires-aa
frame:
  pointerY: 0.25
disk:
  speed: 1.5
`)

	cfg, err := ParseConfig(data, "slow_disk.yaml")
	require.NoError(t, err)

	assert.Equal(t, "slow_disk", cfg.Name, "name falls back to the file stem")
	assert.Empty(t, cfg.Description, "base description is not inherited")
	assert.Equal(t, "hires-aa", cfg.Base)
	assert.Equal(t, 1920, cfg.Render.Width)
	assert.Equal(t, 3, cfg.Render.AA)
	assert.Equal(t, 0.25, cfg.Frame.PointerY)
	assert.Equal(t, 0.5, cfg.Frame.PointerX)
	assert.Equal(t, 1.5, cfg.Disk.Speed)
	assert.Equal(t, 12, cfg.Disk.Steps)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		data    string
		wantErr error
	}{
		{"unknown toml field", "a.toml", "[render]\nsamples = 4\n", nil},
		{"unknown yaml field", "a.yaml", "camera:\n  fov: 40\n", nil},
		{"malformed toml", "a.toml", "[render\n", nil},
		{"unknown base", "a.toml", "base = \"nope\"\n", ErrUnknownScene},
		{"unsupported extension", "a.json", "{}", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data), tt.path)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestParseConfig_EmptyYAMLIsDefault(t *testing.T) {
	cfg, err := ParseConfig(nil, "empty.yml")
	require.NoError(t, err)
	assert.Equal(t, "empty", cfg.Name)
	assert.Equal(t, NewDefaultConfig().Render, cfg.Render)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.toml")
	require.NoError(t, os.WriteFile(path, []byte("[render]\nwidth = 64\nheight = 48\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", cfg.Name)
	assert.Equal(t, 64, cfg.Render.Width)

	cfg, err = LoadConfig("edge-on")
	require.NoError(t, err)
	assert.Equal(t, 0.484, cfg.Frame.PointerY)

	_, err = LoadConfig("does-not-exist")
	assert.ErrorIs(t, err, ErrUnknownScene)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownScene))
}

func TestNewScene_NebulaTexture(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.RGBA{200, 100, 50, 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "nebula.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	cfg := NewDefaultConfig()
	cfg.Background.NebulaTexture = "nebula.png"
	cfg.SourceDir = dir

	s, err := NewScene(cfg)
	require.NoError(t, err)
	starfield, ok := s.Background.(*lights.Starfield)
	require.True(t, ok)
	assert.NotNil(t, starfield.NebulaTexture)

	cfg.Background.NebulaTexture = "missing.png"
	_, err = NewScene(cfg)
	assert.Error(t, err)
}

func TestNewScene_GradientBackground(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Background = BackgroundConfig{
		Type:   lights.EnvironmentTypeGradient,
		Top:    RGB{1, 1, 1},
		Bottom: RGB{0, 0, 0},
	}

	s, err := NewScene(cfg)
	require.NoError(t, err)
	assert.Equal(t, lights.EnvironmentTypeGradient, s.Background.Type())
}
