package renderer

import (
	"image"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/integrator"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels  int // Total number of pixels rendered
	TotalSamples int // Total number of rays traced
	AA           int // Sub-samples per axis used for this render
	Absorbed     int // Rays that fell into the hole
	Escaped      int // Rays that reached the background
	Exhausted    int // Rays that ran out of batches
	DiskHits     int // Disk plane crossings integrated
}

// Merge adds the counts of other into s
func (s *RenderStats) Merge(other RenderStats) {
	s.TotalPixels += other.TotalPixels
	s.TotalSamples += other.TotalSamples
	s.Absorbed += other.Absorbed
	s.Escaped += other.Escaped
	s.Exhausted += other.Exhausted
	s.DiskHits += other.DiskHits
	s.AA = max(s.AA, other.AA)
}

// AbsorbedFraction returns the share of traced rays that were absorbed
func (s RenderStats) AbsorbedFraction() float64 {
	if s.TotalSamples == 0 {
		return 0
	}
	return float64(s.Absorbed) / float64(s.TotalSamples)
}

// PixelStats accumulates the sub-samples of a single pixel
type PixelStats struct {
	ColorAccum  core.Color // Sum of linear sample colors
	SampleCount int
	Absorbed    int
	Escaped     int
	Exhausted   int
	DiskHits    int
}

// AddSample adds one traced sub-sample to the pixel statistics
func (ps *PixelStats) AddSample(result integrator.TraceResult) {
	ps.ColorAccum = ps.ColorAccum.Add(result.Color)
	ps.SampleCount++
	ps.DiskHits += result.DiskHits

	switch result.State {
	case integrator.Absorbed:
		ps.Absorbed++
	case integrator.Escaped:
		ps.Escaped++
	case integrator.Exhausted:
		ps.Exhausted++
	}
}

// GetColor returns the average linear color of the samples so far
func (ps *PixelStats) GetColor() core.Color {
	if ps.SampleCount == 0 {
		return core.Color{}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// addTo folds this pixel into render statistics
func (ps *PixelStats) addTo(stats *RenderStats) {
	stats.TotalPixels++
	stats.TotalSamples += ps.SampleCount
	stats.Absorbed += ps.Absorbed
	stats.Escaped += ps.Escaped
	stats.Exhausted += ps.Exhausted
	stats.DiskHits += ps.DiskHits
}

// CalculateAverageLuminance returns the mean luminance of an image in [0,1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}

	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			total += core.NewVec3(float64(r), float64(g), float64(b)).Multiply(1.0 / 0xffff).Luminance()
		}
	}
	return total / float64(bounds.Dx()*bounds.Dy())
}
