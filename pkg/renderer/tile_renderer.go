package renderer

import (
	"image"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
)

// TileRenderer renders rectangular regions of a frame with a compositor
type TileRenderer struct {
	compositor *Compositor
}

// NewTileRenderer creates a new tile renderer
func NewTileRenderer(compositor *Compositor) *TileRenderer {
	return &TileRenderer{compositor: compositor}
}

// RenderTileBounds renders the pixels within bounds at the given AA into the buffer
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, frame core.FrameParams, pose Pose, aa int, buffer *FrameBuffer) RenderStats {
	stats := RenderStats{AA: aa}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var ps PixelStats
			tr.compositor.samplePixel(x, y, frame, pose, aa, &ps)
			buffer.Set(x, y, tr.compositor.Finalize(ps.GetColor()))
			ps.addTo(&stats)
		}
	}

	return stats
}

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID              int             // Unique tile identifier
	Bounds          image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	PassesCompleted int             // Number of passes completed for this tile
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int) []*Tile {
	var tiles []*Tile
	tileSize = max(tileSize, 1)

	// Ceiling division
	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width) // Don't exceed image bounds
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, &Tile{
				ID:     len(tiles),
				Bounds: image.Rect(x0, y0, x1, y1),
			})
		}
	}

	return tiles
}
