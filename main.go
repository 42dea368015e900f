package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
	"github.com/spf13/cobra"
)

// sceneOptions are the flags shared by every command that renders a scene
type sceneOptions struct {
	scene   string
	width   int
	height  int
	aa      int
	time    float64
	pointer string
}

// app holds the state built from persistent flags
type app struct {
	verbose bool
	quiet   bool
	logger  *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "blackhole",
		Short:        "Gravitational lensing black hole renderer",
		Long:         "Renders a black hole with a lensed accretion disk over a procedural starfield.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = newLogger(cmd.ErrOrStderr(), a.verbose, a.quiet)
			scene.SetLogger(a.logger)
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Only log warnings and errors")

	root.AddCommand(
		newRenderCmd(a),
		newAnimateCmd(a),
		newPreviewCmd(a),
		newWatchCmd(a),
		newScenesCmd(),
	)
	return root
}

// newLogger builds the text logger on w whose level follows the verbosity flags
func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelWarn
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// renderLogger adapts the app logger for the renderers
func (a *app) renderLogger() core.Logger {
	return core.NewSlogLogger(a.logger)
}

// addSceneFlags registers the scene selection and override flags on cmd
func addSceneFlags(cmd *cobra.Command, opts *sceneOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.scene, "scene", "s", scene.DefaultSceneName, "Built-in scene name, scene file id (file:<name>) or path to a .toml/.yaml file")
	flags.IntVar(&opts.width, "width", 0, "Image width in pixels (overrides the scene)")
	flags.IntVar(&opts.height, "height", 0, "Image height in pixels (overrides the scene)")
	flags.IntVar(&opts.aa, "aa", 0, "Sub-samples per pixel axis (overrides the scene)")
	flags.Float64Var(&opts.time, "time", 0, "Frame time in seconds (overrides the scene)")
	flags.StringVar(&opts.pointer, "pointer", "", "Normalized pointer position as x,y (overrides the scene)")
}

// loadConfig resolves the selected scene and applies the flags the user set
func (opts *sceneOptions) loadConfig(cmd *cobra.Command) (scene.Config, error) {
	cfg, err := scene.LoadConfig(opts.scene)
	if err != nil {
		return scene.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Render.Width = opts.width
	}
	if flags.Changed("height") {
		cfg.Render.Height = opts.height
	}
	if flags.Changed("aa") {
		cfg.Render.AA = opts.aa
	}
	if flags.Changed("time") {
		cfg.Frame.Time = opts.time
	}
	if flags.Changed("pointer") {
		x, y, err := parsePointer(opts.pointer)
		if err != nil {
			return scene.Config{}, err
		}
		cfg.Frame.PointerX, cfg.Frame.PointerY = x, y
	}
	if cfg.Name == "" {
		cfg.Name = opts.scene
	}
	return cfg, nil
}

// loadScene is loadConfig followed by scene construction
func (opts *sceneOptions) loadScene(cmd *cobra.Command) (*scene.Scene, error) {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return scene.NewScene(cfg)
}

// parsePointer parses "x,y" with both coordinates in [0,1]
func parsePointer(s string) (float64, float64, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("pointer must be x,y, got: %q", s)
	}

	var coords [2]float64
	for i, part := range []string{xs, ys} {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid pointer coordinate %q: %w", part, err)
		}
		if !(v >= 0 && v <= 1) {
			return 0, 0, fmt.Errorf("%w: got %v", core.ErrInvalidPointer, v)
		}
		coords[i] = v
	}
	return coords[0], coords[1], nil
}
