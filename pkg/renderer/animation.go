package renderer

import (
	"context"
	"fmt"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
	"golang.org/x/sync/errgroup"
)

// AnimationConfig describes a fixed-timestep frame sequence
type AnimationConfig struct {
	Frames    int     // Number of frames to render
	FPS       float64 // Frames per second of simulated time
	StartTime float64 // Time of the first frame in seconds
	PointerX  float64 // Pointer held for the whole sequence
	PointerY  float64
}

// Frame returns the parameters of frame i
func (a AnimationConfig) Frame(i, width, height int) core.FrameParams {
	return core.NewFrameParams(width, height, a.StartTime+float64(i)/a.FPS).
		WithPointer(a.PointerX, a.PointerY, false)
}

// Validate checks the sequence can be rendered
func (a AnimationConfig) Validate() error {
	if a.Frames < 1 {
		return fmt.Errorf("animation needs at least one frame, got %d", a.Frames)
	}
	if !(a.FPS > 0) {
		return fmt.Errorf("animation fps must be positive, got %v", a.FPS)
	}
	return nil
}

// FrameCallback receives each finished frame in order. The buffer is only
// valid until the callback returns.
type FrameCallback func(ctx context.Context, index int, frame core.FrameParams, buffer *FrameBuffer, stats RenderStats) error

// RenderAnimation renders a frame sequence, overlapping the rendering of frame
// i+1 with the callback for frame i. The first error stops the sequence.
func RenderAnimation(ctx context.Context, s *scene.Scene, config AnimationConfig, logger core.Logger, onFrame FrameCallback) (RenderStats, error) {
	if err := config.Validate(); err != nil {
		return RenderStats{}, err
	}
	if logger == nil {
		logger = core.NopLogger
	}

	fr := NewFrameRenderer(s, logger)
	defer fr.Close()

	type renderedFrame struct {
		index  int
		frame  core.FrameParams
		buffer *FrameBuffer
		stats  RenderStats
	}

	// One frame in flight while the previous is handed off
	frames := make(chan renderedFrame, 1)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(frames)
		for i := 0; i < config.Frames; i++ {
			frame := config.Frame(i, s.SamplingConfig.Width, s.SamplingConfig.Height)
			buffer, stats, err := fr.Render(ctx, frame)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			select {
			case frames <- renderedFrame{index: i, frame: frame, buffer: buffer, stats: stats}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var total RenderStats
	g.Go(func() error {
		for rf := range frames {
			if err := onFrame(ctx, rf.index, rf.frame, rf.buffer, rf.stats); err != nil {
				return fmt.Errorf("frame %d: %w", rf.index, err)
			}
			total.Merge(rf.stats)
			logger.Printf("Frame %d/%d at t=%.3fs: %d rays\n", rf.index+1, config.Frames, rf.frame.Time, rf.stats.TotalSamples)
		}
		return nil
	})

	err := g.Wait()
	return total, err
}
