package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/loaders"
	"github.com/df07/go-blackhole-raytracer/pkg/output"
	"github.com/df07/go-blackhole-raytracer/pkg/preview"
	"github.com/df07/go-blackhole-raytracer/pkg/renderer"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	var opts sceneOptions
	var out string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a single frame to an image file",
		Long: "Render a single frame of a scene. The format follows the extension of --out:\n" +
			"png, jpg, tiff, bmp or exr. Without --out the image goes to output/<scene>/render_<timestamp>.png.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.loadScene(cmd)
			if err != nil {
				return err
			}
			if out == "" {
				out = output.DefaultPath(s.Name, output.FormatPNG, time.Now())
			}
			_, err = renderToFile(cmd.Context(), a, s, out)
			return err
		},
	}
	addSceneFlags(cmd, &opts)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	return cmd
}

// renderToFile renders the scene's configured frame and saves it
func renderToFile(ctx context.Context, a *app, s *scene.Scene, path string) (renderer.RenderStats, error) {
	// Fail on a bad extension before spending time on the render
	if _, err := output.FormatFromPath(path); err != nil {
		return renderer.RenderStats{}, err
	}

	fr := renderer.NewFrameRenderer(s, a.renderLogger())
	defer fr.Close()

	a.logger.Info("Rendering", "scene", s.Name, "width", s.SamplingConfig.Width, "height", s.SamplingConfig.Height,
		"aa", s.SamplingConfig.AA, "workers", fr.NumWorkers())

	start := time.Now()
	buffer, stats, err := fr.Render(ctx, s.FrameParams())
	if err != nil {
		return stats, err
	}
	if err := output.SaveImage(path, buffer); err != nil {
		return stats, err
	}

	a.logger.Info("Render saved", "path", path, "duration", time.Since(start).Round(time.Millisecond),
		"rays", stats.TotalSamples, "absorbed", stats.Absorbed, "escaped", stats.Escaped,
		"exhausted", stats.Exhausted, "diskHits", stats.DiskHits)
	return stats, nil
}

func newAnimateCmd(a *app) *cobra.Command {
	var opts sceneOptions
	var out string
	var frames int
	var fps float64
	var format string

	cmd := &cobra.Command{
		Use:   "animate",
		Short: "Render a frame sequence to an animated GIF or numbered images",
		Long: "Render --frames frames at a fixed --fps starting at --time. An --out ending in .gif\n" +
			"writes an animated GIF; anything else is a directory of frame_NNNN images.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := scene.NewScene(cfg)
			if err != nil {
				return err
			}
			if out == "" {
				out = strings.TrimSuffix(output.DefaultPath(s.Name, output.FormatPNG, time.Now()), ".png") + ".gif"
			}

			anim := renderer.AnimationConfig{
				Frames:    frames,
				FPS:       fps,
				StartTime: cfg.Frame.Time,
				PointerX:  cfg.Frame.PointerX,
				PointerY:  cfg.Frame.PointerY,
			}
			return animate(cmd.Context(), a, s, anim, out, format)
		},
	}
	addSceneFlags(cmd, &opts)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output .gif file or frame directory")
	cmd.Flags().IntVar(&frames, "frames", 60, "Number of frames")
	cmd.Flags().Float64Var(&fps, "fps", 30, "Frames per second")
	cmd.Flags().StringVar(&format, "format", string(output.FormatPNG), "Image format of sequence frames")
	return cmd
}

// animate renders the sequence into a GIF or a directory of images depending on out
func animate(ctx context.Context, a *app, s *scene.Scene, anim renderer.AnimationConfig, out, format string) error {
	start := time.Now()

	if strings.EqualFold(filepath.Ext(out), ".gif") {
		gifWriter := output.NewGIFWriter(anim.FPS)
		_, err := renderer.RenderAnimation(ctx, s, anim, a.renderLogger(),
			func(ctx context.Context, index int, frame core.FrameParams, buffer *renderer.FrameBuffer, stats renderer.RenderStats) error {
				gifWriter.AddFrame(buffer)
				return nil
			})
		if err != nil {
			return err
		}
		if err := gifWriter.Save(out); err != nil {
			return err
		}
		a.logger.Info("Animation saved", "path", out, "frames", gifWriter.Len(), "duration", time.Since(start).Round(time.Millisecond))
		return nil
	}

	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	seq, err := output.NewSequenceWriter(out, f)
	if err != nil {
		return err
	}
	_, err = renderer.RenderAnimation(ctx, s, anim, a.renderLogger(),
		func(ctx context.Context, index int, frame core.FrameParams, buffer *renderer.FrameBuffer, stats renderer.RenderStats) error {
			path, err := seq.WriteFrame(index, buffer)
			if err != nil {
				return err
			}
			a.logger.Debug("Frame saved", "path", path)
			return nil
		})
	if err != nil {
		return err
	}
	a.logger.Info("Sequence saved", "dir", out, "frames", anim.Frames, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func newPreviewCmd(a *app) *cobra.Command {
	var opts sceneOptions
	var columns int
	var frames int
	var fps float64

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render into the terminal with truecolor half blocks",
		Long: "Render the scene and draw it in the terminal, two pixels per character cell.\n" +
			"With --frames above 1 the preview animates in place.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := scene.NewScene(cfg)
			if err != nil {
				return err
			}

			term := preview.NewTerminal(cmd.OutOrStdout(), preview.Options{Columns: columns, DetectProfile: true})
			if frames <= 1 {
				buffer, _, err := renderer.NewRaytracer(s).RenderFrame(s.FrameParams())
				if err != nil {
					return err
				}
				return term.Draw(buffer.ToRGBA())
			}

			anim := renderer.AnimationConfig{
				Frames:    frames,
				FPS:       fps,
				StartTime: cfg.Frame.Time,
				PointerX:  cfg.Frame.PointerX,
				PointerY:  cfg.Frame.PointerY,
			}
			term.Clear()
			_, err = renderer.RenderAnimation(cmd.Context(), s, anim, a.renderLogger(),
				func(ctx context.Context, index int, frame core.FrameParams, buffer *renderer.FrameBuffer, stats renderer.RenderStats) error {
					term.Home()
					return term.Draw(buffer.ToRGBA())
				})
			return err
		},
	}
	addSceneFlags(cmd, &opts)
	cmd.Flags().IntVar(&columns, "cols", 80, "Terminal columns to use")
	cmd.Flags().IntVar(&frames, "frames", 1, "Number of frames to animate")
	cmd.Flags().Float64Var(&fps, "fps", 10, "Frames per second of simulated time")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var out string
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <scene file>",
		Short: "Re-render a scene file every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !scene.IsConfigFile(path) {
				return fmt.Errorf("watch needs a .toml or .yaml scene file, got: %s", path)
			}

			render := func() {
				cfg, err := scene.LoadConfigFile(path)
				if err != nil {
					a.logger.Error("Scene file invalid", "path", path, "error", err)
					return
				}
				s, err := scene.NewScene(cfg)
				if err != nil {
					a.logger.Error("Scene file invalid", "path", path, "error", err)
					return
				}
				target := out
				if target == "" {
					target = output.DefaultPath(s.Name, output.FormatPNG, time.Now())
				}
				if _, err := renderToFile(cmd.Context(), a, s, target); err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Error("Render failed", "error", err)
				}
			}

			render()
			a.logger.Info("Watching for changes", "path", path)
			err := loaders.WatchFile(cmd.Context(), path, debounce, render)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, rewritten on every change")
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "Quiet period before re-rendering")
	return cmd
}

func newScenesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenes",
		Short: "List built-in scenes and scene files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			response, err := scene.ListAllScenes()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, group := range response.Groups {
				fmt.Fprintf(w, "%s:\n", group.Name)
				for _, info := range group.Scenes {
					fmt.Fprintf(w, "  %s\t%s\n", info.ID, info.Description)
				}
			}
			return w.Flush()
		},
	}
}
