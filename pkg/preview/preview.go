// Package preview draws rendered frames in a terminal using half-block
// characters, two image rows per text row.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/image/draw"
)

const upperHalfBlock = "▀"

// Options controls the preview size and color handling
type Options struct {
	Columns       int               // Width in characters; the height follows the aspect ratio
	Profile       termenv.Profile   // Color profile used unless DetectProfile is set
	DetectProfile bool              // Query the writer for its color support
	Scaler        draw.Interpolator // Resampling filter; defaults to bilinear
}

// Terminal writes images to a terminal
type Terminal struct {
	output  *termenv.Output
	options Options
}

// NewTerminal creates a preview writer. With DetectProfile set, plain files
// and pipes get no escape codes.
func NewTerminal(w io.Writer, options Options) *Terminal {
	if options.Columns <= 0 {
		options.Columns = 80
	}
	if options.Scaler == nil {
		options.Scaler = draw.BiLinear
	}

	var output *termenv.Output
	if options.DetectProfile {
		output = termenv.NewOutput(w)
	} else {
		output = termenv.NewOutput(w, termenv.WithProfile(options.Profile))
	}
	return &Terminal{output: output, options: options}
}

// Size returns the character grid an image of the given size is drawn into.
// Terminal cells are about twice as tall as wide, which the half blocks undo.
func (t *Terminal) Size(width, height int) (columns, rows int) {
	columns = min(t.options.Columns, max(width, 1))
	pixelRows := max(int(float64(height)*float64(columns)/float64(max(width, 1))+0.5), 2)
	return columns, (pixelRows + 1) / 2
}

// Scale resizes img to the preview grid, two pixel rows per character row
func (t *Terminal) Scale(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	columns, rows := t.Size(bounds.Dx(), bounds.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, columns, rows*2))
	t.options.Scaler.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

// Draw writes the image, one line per character row
func (t *Terminal) Draw(img image.Image) error {
	scaled := t.Scale(img)
	bounds := scaled.Bounds()

	var sb strings.Builder
	for y := 0; y < bounds.Dy(); y += 2 {
		for x := 0; x < bounds.Dx(); x++ {
			top := scaled.RGBAAt(x, y)
			bottom := scaled.RGBAAt(x, y+1)
			style := t.output.String(upperHalfBlock).
				Foreground(t.output.Color(hex(top))).
				Background(t.output.Color(hex(bottom)))
			sb.WriteString(style.String())
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(t.output, sb.String())
	return err
}

// Home moves the cursor to the top-left so the next frame overwrites this one
func (t *Terminal) Home() {
	t.output.MoveCursor(1, 1)
}

// Clear clears the screen
func (t *Terminal) Clear() {
	t.output.ClearScreen()
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
