package server

import (
	"net/http"
	"strconv"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/integrator"
	"github.com/df07/go-blackhole-raytracer/pkg/renderer"
)

// InspectSample describes one traced sub-sample of the inspected pixel
type InspectSample struct {
	SubPixel      [2]float64 `json:"subPixel"`
	Direction     [3]float64 `json:"direction"` // Initial ray direction
	State         string     `json:"state"`
	Batches       int        `json:"batches"`
	DiskHits      int        `json:"diskHits"`
	FinalPosition [3]float64 `json:"finalPosition"`
	DiskAlpha     float64    `json:"diskAlpha"`
	GlowAlpha     float64    `json:"glowAlpha"`
	Color         string     `json:"color"` // Linear sample color as hex
}

// InspectResponse represents the JSON response for pixel inspection
type InspectResponse struct {
	X        int             `json:"x"`
	Y        int             `json:"y"`
	Color    string          `json:"color"`  // Display color as hex
	Linear   [3]float64      `json:"linear"` // Averaged linear color
	Absorbed int             `json:"absorbed"`
	Escaped  int             `json:"escaped"`
	DiskHits int             `json:"diskHits"`
	Samples  []InspectSample `json:"samples"`
}

// handleInspect traces a single pixel and reports what each of its rays did
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	inspectReq := &RenderRequest{}

	cfg, err := s.parseCommonSceneParams(r, inspectReq)
	if err != nil {
		s.writeError(w, statusFor(err), "Invalid scene parameters: "+err.Error())
		return
	}

	// Parse pixel coordinates
	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}

	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	// Validate pixel coordinates
	if pixelX < 0 || pixelX >= inspectReq.Width || pixelY < 0 || pixelY >= inspectReq.Height {
		s.writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	sceneObj, err := s.createScene(cfg, inspectReq)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trace := renderer.NewCompositor(sceneObj).TracePixel(pixelX, pixelY, sceneObj.FrameParams())
	s.writeJSON(w, http.StatusOK, newInspectResponse(trace))
}

func newInspectResponse(trace renderer.PixelTrace) InspectResponse {
	response := InspectResponse{
		X:       trace.X,
		Y:       trace.Y,
		Color:   trace.Color.Hex(),
		Linear:  vec3Array(trace.Linear.RGB()),
		Samples: make([]InspectSample, 0, len(trace.Samples)),
	}

	for _, sample := range trace.Samples {
		result := sample.Result
		response.DiskHits += result.DiskHits
		switch result.State {
		case integrator.Absorbed:
			response.Absorbed++
		case integrator.Escaped:
			response.Escaped++
		}

		response.Samples = append(response.Samples, InspectSample{
			SubPixel:      [2]float64{sample.SubPixel.X, sample.SubPixel.Y},
			Direction:     vec3Array(sample.Ray.Direction),
			State:         result.State.String(),
			Batches:       result.Batches,
			DiskHits:      result.DiskHits,
			FinalPosition: vec3Array(result.FinalPosition),
			DiskAlpha:     result.Disk.A,
			GlowAlpha:     result.Glow.A,
			Color:         result.Color.Hex(),
		})
	}
	return response
}

func vec3Array(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
