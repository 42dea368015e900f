package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder
)

// ImageData contains loaded image data as Vec3 color array
type ImageData struct {
	Width  int
	Height int
	Format string
	Pixels []core.Vec3 // Row-major: Pixels[y*Width + x], row 0 at the top
}

// LoadImage loads a PNG, JPEG, WebP, BMP or TIFF image and converts it to a Vec3 color array
func LoadImage(filename string) (*ImageData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	// Format is detected from the file header
	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	data := FromImage(img)
	data.Format = format
	return data, nil
}

// FromImage converts a decoded image to a Vec3 color array
func FromImage(img image.Image) *ImageData {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535], convert to [0, 1]
			pixels[y*width+x] = core.NewVec3(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			)
		}
	}

	return &ImageData{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}

// Sample returns the nearest texel at uv. Coordinates wrap in both directions;
// v = 0 is the bottom row.
func (d *ImageData) Sample(uv core.Vec2) core.Vec3 {
	if d.Width == 0 || d.Height == 0 {
		return core.Vec3{}
	}

	u := core.Fract(uv.X)
	v := core.Fract(uv.Y)

	x := min(int(u*float64(d.Width)), d.Width-1)
	y := min(int((1.0-v)*float64(d.Height)), d.Height-1)

	return d.Pixels[y*d.Width+x]
}
