// Package output writes rendered frames to disk in the common image formats.
package output

import (
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-blackhole-raytracer/pkg/renderer"
	"github.com/mrjoshuak/go-openexr/exr"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is an output image encoding
type Format string

// Supported formats
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatTIFF Format = "tiff"
	FormatBMP  Format = "bmp"
	FormatEXR  Format = "exr"
)

// ErrUnsupportedFormat is returned for unknown extensions or format names
var ErrUnsupportedFormat = errors.New("unsupported output format")

// JPEGQuality is the quality used for JPEG output
const JPEGQuality = 92

// ParseFormat accepts a format name or a file extension, with or without the dot
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	case "bmp":
		return FormatBMP, nil
	case "exr":
		return FormatEXR, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Extension returns the canonical file extension, including the dot
func (f Format) Extension() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// Encode writes the buffer in the given format. EXR keeps the float values and
// needs a seekable writer; every other format is 8 bits per channel.
func Encode(w io.Writer, format Format, buffer *renderer.FrameBuffer) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, buffer.ToRGBA())
	case FormatJPEG:
		return jpeg.Encode(w, buffer.ToRGBA(), &jpeg.Options{Quality: JPEGQuality})
	case FormatTIFF:
		return tiff.Encode(w, buffer.ToRGBA(), &tiff.Options{Compression: tiff.Deflate})
	case FormatBMP:
		return bmp.Encode(w, buffer.ToRGBA())
	case FormatEXR:
		ws, ok := w.(io.WriteSeeker)
		if !ok {
			return fmt.Errorf("exr output needs a seekable writer")
		}
		return exr.Encode(ws, toEXR(buffer))
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// SaveImage writes the buffer to path, creating parent directories. The format
// follows the extension.
func SaveImage(path string, buffer *renderer.FrameBuffer) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(file, format, buffer); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}

// DefaultPath returns output/<scene>/render_<timestamp><ext>
func DefaultPath(sceneName string, format Format, now time.Time) string {
	return filepath.Join("output", sanitize(sceneName), "render_"+now.Format("20060102_150405")+format.Extension())
}

func toEXR(buffer *renderer.FrameBuffer) *exr.RGBAImage {
	img := exr.NewRGBAImage(buffer.Bounds())
	for y := 0; y < buffer.Height; y++ {
		for x := 0; x < buffer.Width; x++ {
			i := (y*buffer.Width + x) * 4
			img.SetRGBA(x, y, buffer.Pix[i], buffer.Pix[i+1], buffer.Pix[i+2], buffer.Pix[i+3])
		}
	}
	return img
}

// sanitize keeps scene names usable as directory names
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "scene"
	}
	return name
}
