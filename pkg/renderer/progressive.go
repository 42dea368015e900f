package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

// ErrRendererClosed is returned when rendering with a closed renderer
var ErrRendererClosed = errors.New("renderer is closed")

// FrameRenderer renders whole frames in parallel tiles on a long-lived worker
// pool. Frames may change size between calls. Calls are serialized.
type FrameRenderer struct {
	scene      *scene.Scene
	compositor *Compositor
	workerPool *WorkerPool
	logger     core.Logger

	mu       sync.Mutex
	tiles    []*Tile
	tileSize int
	width    int
	height   int
	closed   bool
}

// NewFrameRenderer creates a frame renderer for a scene. A nil logger discards output.
func NewFrameRenderer(s *scene.Scene, logger core.Logger) *FrameRenderer {
	if logger == nil {
		logger = core.NopLogger
	}
	compositor := NewCompositor(s)
	pool := NewWorkerPool(compositor, s.SamplingConfig.NumWorkers)
	pool.Start()

	return &FrameRenderer{
		scene:      s,
		compositor: compositor,
		workerPool: pool,
		logger:     logger,
		tileSize:   max(s.SamplingConfig.TileSize, 1),
	}
}

// Compositor returns the per-pixel compositor the renderer uses
func (fr *FrameRenderer) Compositor() *Compositor {
	return fr.compositor
}

// NumWorkers returns the number of parallel workers
func (fr *FrameRenderer) NumWorkers() int {
	return fr.workerPool.GetNumWorkers()
}

// Close stops the worker pool. Further renders fail with ErrRendererClosed.
func (fr *FrameRenderer) Close() {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if !fr.closed {
		fr.closed = true
		fr.workerPool.Stop()
	}
}

// Render renders a complete frame at the configured AA
func (fr *FrameRenderer) Render(ctx context.Context, frame core.FrameParams) (*FrameBuffer, RenderStats, error) {
	if err := frame.Validate(); err != nil {
		return nil, RenderStats{}, err
	}
	buffer := NewFrameBuffer(frame.Width, frame.Height)
	stats, err := fr.RenderPass(ctx, frame, buffer, fr.compositor.AA(), 1, nil)
	if err != nil {
		return nil, stats, err
	}
	return buffer, stats, nil
}

// RenderPass renders every tile of the frame at the given AA into buffer.
// onTile, when set, is called from the calling goroutine as each tile completes.
func (fr *FrameRenderer) RenderPass(ctx context.Context, frame core.FrameParams, buffer *FrameBuffer, aa, passNumber int, onTile func(*Tile, int)) (RenderStats, error) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	if fr.closed {
		return RenderStats{}, ErrRendererClosed
	}
	if buffer.Width != frame.Width || buffer.Height != frame.Height {
		return RenderStats{}, fmt.Errorf("buffer is %dx%d but frame is %dx%d", buffer.Width, buffer.Height, frame.Width, frame.Height)
	}

	tiles := fr.tilesFor(frame.Width, frame.Height)
	pose := fr.compositor.Camera().Pose(frame)

	// Submit from a separate goroutine so result collection never blocks submission
	go func() {
		for i, tile := range tiles {
			fr.workerPool.SubmitTask(TileTask{
				Ctx:        ctx,
				Tile:       tile,
				PassNumber: passNumber,
				AA:         aa,
				TaskID:     i,
				Frame:      frame,
				Pose:       pose,
				Buffer:     buffer,
			})
		}
	}()

	stats := RenderStats{AA: aa}
	var firstErr error
	for i := 0; i < len(tiles); i++ {
		result, ok := fr.workerPool.GetResult()
		if !ok {
			return stats, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}

		tile := tiles[result.TaskID]
		tile.PassesCompleted++
		stats.Merge(result.Stats)

		if onTile != nil && firstErr == nil {
			onTile(tile, i+1)
		}
	}

	return stats, firstErr
}

func (fr *FrameRenderer) tilesFor(width, height int) []*Tile {
	if fr.tiles == nil || fr.width != width || fr.height != height {
		fr.tiles = NewTileGrid(width, height, fr.tileSize)
		fr.width = width
		fr.height = height
	}
	return fr.tiles
}

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	TileSize   int   // Size of each tile (64x64 recommended)
	Levels     []int // AA factor of each pass, increasing
	NumWorkers int   // Number of parallel workers (0 = use CPU count)
}

// DefaultProgressiveConfig derives the progressive passes from a scene's sampling config
func DefaultProgressiveConfig(s *scene.Scene) ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:   s.SamplingConfig.TileSize,
		Levels:     s.SamplingConfig.ProgressiveLevels(),
		NumWorkers: s.SamplingConfig.NumWorkers,
	}
}

// ProgressiveRaytracer renders a frame in passes of increasing AA so a coarse
// image is available quickly and refines toward the configured quality.
type ProgressiveRaytracer struct {
	renderer *FrameRenderer
	config   ProgressiveConfig
	frame    core.FrameParams
	buffer   *FrameBuffer
	logger   core.Logger
}

// NewProgressiveRaytracer creates a new progressive raytracer for one frame
func NewProgressiveRaytracer(s *scene.Scene, frame core.FrameParams, config ProgressiveConfig, logger core.Logger) (*ProgressiveRaytracer, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = core.NopLogger
	}
	if len(config.Levels) == 0 {
		config.Levels = []int{max(s.SamplingConfig.AA, 1)}
	}

	configured := *s
	configured.SamplingConfig.TileSize = config.TileSize
	configured.SamplingConfig.NumWorkers = config.NumWorkers

	return &ProgressiveRaytracer{
		renderer: NewFrameRenderer(&configured, logger),
		config:   config,
		frame:    frame,
		buffer:   NewFrameBuffer(frame.Width, frame.Height),
		logger:   logger,
	}, nil
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	AA         int
	Image      *image.RGBA
	Buffer     *FrameBuffer // Float result; shared, valid until the next pass starts
	Stats      RenderStats
	Duration   time.Duration
	IsLast     bool
}

// TileCompletionResult contains information about a completed tile for callbacks
type TileCompletionResult struct {
	TileX      int // Tile coordinates (not pixel coordinates)
	TileY      int
	TileImage  *image.RGBA // Image data for just this tile
	PassNumber int         // Which pass this tile was rendered in

	// Progress information
	TileNumber  int // Current tile number in this pass (1-based)
	TotalTiles  int // Total number of tiles in the image
	TotalPasses int // Total number of passes planned
}

// RenderOptions configures progressive rendering behavior
type RenderOptions struct {
	TileUpdates bool // Whether to generate tile completion events
}

// TotalPasses returns the number of passes RenderProgressive will run
func (pr *ProgressiveRaytracer) TotalPasses() int {
	return len(pr.config.Levels)
}

// RenderPass renders one pass at the AA of its level
func (pr *ProgressiveRaytracer) RenderPass(ctx context.Context, passNumber int, tileCallback func(TileCompletionResult)) (PassResult, error) {
	aa := pr.config.Levels[passNumber-1]
	pr.logger.Printf("Pass %d: %dx%d AA (using %d workers)...\n", passNumber, aa, aa, pr.renderer.NumWorkers())

	start := time.Now()
	var onTile func(*Tile, int)
	if tileCallback != nil {
		tileSize := max(pr.config.TileSize, 1)
		totalTiles := len(NewTileGrid(pr.frame.Width, pr.frame.Height, tileSize))
		onTile = func(tile *Tile, n int) {
			tileCallback(TileCompletionResult{
				TileX:       tile.Bounds.Min.X / tileSize,
				TileY:       tile.Bounds.Min.Y / tileSize,
				TileImage:   pr.buffer.RegionToRGBA(tile.Bounds),
				PassNumber:  passNumber,
				TileNumber:  n,
				TotalTiles:  totalTiles,
				TotalPasses: pr.TotalPasses(),
			})
		}
	}

	stats, err := pr.renderer.RenderPass(ctx, pr.frame, pr.buffer, aa, passNumber, onTile)
	if err != nil {
		return PassResult{}, err
	}

	return PassResult{
		PassNumber: passNumber,
		AA:         aa,
		Image:      pr.buffer.ToRGBA(),
		Buffer:     pr.buffer,
		Stats:      stats,
		Duration:   time.Since(start),
		IsLast:     passNumber == pr.TotalPasses(),
	}, nil
}

// RenderProgressive renders with channel-based communication.
// Returns channels for events. The caller should read from these channels in separate goroutines.
// If options.TileUpdates is false, the tile channel will be closed immediately and no tile events will be generated.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context, options RenderOptions) (<-chan PassResult, <-chan TileCompletionResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	tileChan := make(chan TileCompletionResult, 100) // Buffer for tiles
	errChan := make(chan error, 1)

	if !options.TileUpdates {
		close(tileChan)
	}

	go func() {
		defer close(passChan)
		if options.TileUpdates {
			defer close(tileChan)
		}
		defer close(errChan)
		defer pr.renderer.Close()

		pr.logger.Printf("Starting progressive rendering with %d passes...\n", pr.TotalPasses())

		for pass := 1; pass <= pr.TotalPasses(); pass++ {
			// Check if client disconnected before starting this pass
			select {
			case <-ctx.Done():
				pr.logger.Printf("Rendering cancelled before pass %d\n", pass)
				errChan <- ctx.Err()
				return
			default:
			}

			var tileCallback func(TileCompletionResult)
			if options.TileUpdates {
				tileCallback = func(result TileCompletionResult) {
					select {
					case tileChan <- result:
					case <-ctx.Done():
					default:
						// Channel full; the pass image still carries the tile
					}
				}
			}

			result, err := pr.RenderPass(ctx, pass, tileCallback)
			if err != nil {
				errChan <- err
				return
			}

			pr.logger.Printf("Pass %d completed in %v (%d rays: %d absorbed, %d escaped, %d exhausted)\n",
				pass, result.Duration, result.Stats.TotalSamples,
				result.Stats.Absorbed, result.Stats.Escaped, result.Stats.Exhausted)

			select {
			case passChan <- result:
			case <-ctx.Done():
				return
			}
		}
	}()

	return passChan, tileChan, errChan
}
