package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/lights"
	"github.com/df07/go-blackhole-raytracer/pkg/loaders"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownScene is returned when a name matches neither a preset nor a scene file
	ErrUnknownScene = errors.New("unknown scene")
	// ErrInvalidConfig wraps every validation failure
	ErrInvalidConfig = errors.New("invalid scene config")
)

// Config is the serializable description of a scene. Files only need to set the
// fields that differ from the preset named by Base.
type Config struct {
	Name        string           `toml:"name" yaml:"name" json:"name"`
	Base        string           `toml:"base,omitempty" yaml:"base,omitempty" json:"base,omitempty"`
	Description string           `toml:"description" yaml:"description" json:"description"`
	Render      SamplingConfig   `toml:"render" yaml:"render" json:"render"`
	Camera      CameraConfig     `toml:"camera" yaml:"camera" json:"camera"`
	Frame       FrameConfig      `toml:"frame" yaml:"frame" json:"frame"`
	BlackHole   BlackHole        `toml:"blackHole" yaml:"blackHole" json:"blackHole"`
	Disk        Disk             `toml:"disk" yaml:"disk" json:"disk"`
	Background  BackgroundConfig `toml:"background" yaml:"background" json:"background"`

	// SourceDir resolves relative texture paths; set when loaded from a file
	SourceDir string `toml:"-" yaml:"-" json:"-"`
}

// BackgroundConfig selects and tunes the environment seen by escaping rays
type BackgroundConfig struct {
	Type           lights.EnvironmentType `toml:"type" yaml:"type" json:"type"`
	StarDensity    float64                `toml:"starDensity" yaml:"starDensity" json:"starDensity"`
	NebulaStrength float64                `toml:"nebulaStrength" yaml:"nebulaStrength" json:"nebulaStrength"`
	NebulaTexture  string                 `toml:"nebulaTexture,omitempty" yaml:"nebulaTexture,omitempty" json:"nebulaTexture,omitempty"`
	NebulaGain     float64                `toml:"nebulaGain" yaml:"nebulaGain" json:"nebulaGain"`
	Color          RGB                    `toml:"color" yaml:"color" json:"color"`    // uniform
	Top            RGB                    `toml:"top" yaml:"top" json:"top"`          // gradient
	Bottom         RGB                    `toml:"bottom" yaml:"bottom" json:"bottom"` // gradient
}

// RGB is a color literal in scene files
type RGB struct {
	R float64 `toml:"r" yaml:"r" json:"r"`
	G float64 `toml:"g" yaml:"g" json:"g"`
	B float64 `toml:"b" yaml:"b" json:"b"`
}

func (c RGB) vec3() core.Vec3 {
	return core.NewVec3(c.R, c.G, c.B)
}

// Validate reports every problem with the configuration at once
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidConfig}, args...)...))
	}

	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		invalid("render size must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.AA < 1 || c.Render.AA > 8 {
		invalid("aa must be between 1 and 8, got %d", c.Render.AA)
	}
	if c.Render.Passes < 0 {
		invalid("passes must not be negative, got %d", c.Render.Passes)
	}
	if c.Render.TileSize <= 0 {
		invalid("tileSize must be positive, got %d", c.Render.TileSize)
	}
	if c.Render.NumWorkers < 0 {
		invalid("numWorkers must not be negative, got %d", c.Render.NumWorkers)
	}

	switch c.Camera.PointerMode {
	case PointerModeSpin, PointerModeZoom:
	default:
		invalid("pointerMode must be %q or %q, got %q", PointerModeSpin, PointerModeZoom, c.Camera.PointerMode)
	}
	if !positive(c.Camera.Distance) {
		invalid("camera distance must be positive, got %v", c.Camera.Distance)
	}
	if !positive(c.Camera.Gamma) {
		invalid("gamma must be positive, got %v", c.Camera.Gamma)
	}

	frame := core.NewFrameParams(max(c.Render.Width, 1), max(c.Render.Height, 1), c.Frame.Time)
	frame.PointerX, frame.PointerY = c.Frame.PointerX, c.Frame.PointerY
	if err := frame.Validate(); err != nil {
		invalid("frame: %v", err)
	}

	if !positive(c.BlackHole.Size) {
		invalid("black hole size must be positive, got %v", c.BlackHole.Size)
	}
	if bend := c.BlackHole.BendStrength; bend < 0 || math.IsNaN(bend) || math.IsInf(bend, 0) {
		invalid("bendStrength must be a non-negative number, got %v", c.BlackHole.BendStrength)
	}
	if !positive(c.BlackHole.AbsorbScale) || !positive(c.BlackHole.EscapeScale) || c.BlackHole.AbsorbScale >= c.BlackHole.EscapeScale {
		invalid("absorbScale and escapeScale must be positive with absorb < escape, got %v and %v", c.BlackHole.AbsorbScale, c.BlackHole.EscapeScale)
	}
	if !positive(c.BlackHole.PlaneThresholdScale) || !positive(c.BlackHole.PlaneNudgeScale) {
		invalid("planeThresholdScale and planeNudgeScale must be positive")
	}
	if c.BlackHole.MaxBatches < 1 || c.BlackHole.SubSteps < 1 {
		invalid("maxBatches and subSteps must be at least 1, got %d and %d", c.BlackHole.MaxBatches, c.BlackHole.SubSteps)
	}

	if c.Disk.Steps < 1 {
		invalid("disk steps must be at least 1, got %d", c.Disk.Steps)
	}
	if math.IsNaN(c.Disk.Speed) || math.IsInf(c.Disk.Speed, 0) {
		invalid("disk speed must be finite, got %v", c.Disk.Speed)
	}

	switch c.Background.Type {
	case lights.EnvironmentTypeStarfield, lights.EnvironmentTypeUniform, lights.EnvironmentTypeGradient:
	default:
		invalid("unknown background type %q", c.Background.Type)
	}

	return errors.Join(errs...)
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0)
}

// NewScene validates a configuration and builds the renderable scene from it
func NewScene(cfg Config) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	background, err := cfg.buildBackground()
	if err != nil {
		return nil, err
	}

	return &Scene{
		Name:           cfg.Name,
		Description:    cfg.Description,
		BlackHole:      cfg.BlackHole,
		Disk:           cfg.Disk,
		Background:     background,
		Camera:         cfg.Camera,
		SamplingConfig: cfg.Render,
		Frame:          cfg.Frame,
	}, nil
}

func (c Config) buildBackground() (lights.Environment, error) {
	bg := c.Background
	switch bg.Type {
	case lights.EnvironmentTypeUniform:
		return lights.NewUniformEnvironment(bg.Color.vec3()), nil
	case lights.EnvironmentTypeGradient:
		return lights.NewGradientEnvironment(bg.Top.vec3(), bg.Bottom.vec3()), nil
	}

	starfield := lights.NewStarfield()
	starfield.StarDensity = bg.StarDensity
	starfield.NebulaStrength = bg.NebulaStrength
	starfield.NebulaGain = bg.NebulaGain
	if bg.NebulaTexture != "" {
		path := bg.NebulaTexture
		if !filepath.IsAbs(path) && c.SourceDir != "" {
			path = filepath.Join(c.SourceDir, path)
		}
		texture, err := loaders.LoadImage(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load nebula texture: %w", err)
		}
		starfield.NebulaTexture = texture
	}
	return starfield, nil
}

// IsConfigFile reports whether the path has a scene file extension
func IsConfigFile(path string) bool {
	_, ok := decoderFor(path)
	return ok
}

type decodeFunc func(data []byte, v interface{}, strict bool) error

func decoderFor(path string) (decodeFunc, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return decodeTOML, true
	case ".yaml", ".yml":
		return decodeYAML, true
	}
	return nil, false
}

func decodeTOML(data []byte, v interface{}, strict bool) error {
	decoder := toml.NewDecoder(bytes.NewReader(data))
	if strict {
		decoder.DisallowUnknownFields()
	}
	return decoder.Decode(v)
}

func decodeYAML(data []byte, v interface{}, strict bool) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(strict)
	if err := decoder.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadConfigFile reads a TOML or YAML scene file on top of its base preset
func LoadConfigFile(path string) (Config, error) {
	decode, ok := decoderFor(path)
	if !ok {
		return Config{}, fmt.Errorf("unsupported scene file %q: expected .toml, .yaml or .yml", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read scene file: %w", err)
	}
	return parseConfig(data, decode, path)
}

// ParseConfig decodes scene file contents. The path's extension selects the
// format and its base name is the fallback scene name.
func ParseConfig(data []byte, path string) (Config, error) {
	decode, ok := decoderFor(path)
	if !ok {
		return Config{}, fmt.Errorf("unsupported scene file %q: expected .toml, .yaml or .yml", path)
	}
	return parseConfig(data, decode, path)
}

func parseConfig(data []byte, decode decodeFunc, path string) (Config, error) {
	var header struct {
		Base string `toml:"base" yaml:"base"`
	}
	if err := decode(data, &header, false); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	base := header.Base
	if base == "" {
		base = DefaultSceneName
	}
	cfg, err := Preset(base)
	if err != nil {
		return Config{}, fmt.Errorf("%s: base: %w", path, err)
	}
	cfg.Name = ""
	cfg.Description = ""

	if err := decode(data, &cfg, true); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	cfg.SourceDir = filepath.Dir(path)
	return cfg, nil
}

// LoadConfig resolves a preset name, a discovered scene id or a scene file path
func LoadConfig(nameOrPath string) (Config, error) {
	if IsConfigFile(nameOrPath) {
		return LoadConfigFile(nameOrPath)
	}
	return LoadNamedConfig(nameOrPath)
}

// LoadNamedConfig resolves a preset name or a "file:<id>" scene from the scenes
// directory. Paths are never opened.
func LoadNamedConfig(name string) (Config, error) {
	if cfg, err := Preset(name); err == nil {
		return cfg, nil
	}

	// Discovered scene files are addressed by their id
	if id, ok := strings.CutPrefix(name, fileScenePrefix); ok {
		if path, found := findSceneFile(id); found {
			return LoadConfigFile(path)
		}
	}
	return Config{}, fmt.Errorf("%w: %q", ErrUnknownScene, name)
}
