package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/df07/go-blackhole-raytracer/pkg/scene"
	"github.com/gorilla/websocket"
)

// Request limits
const (
	DefaultTileSize = 64
	MinSize         = 16
	MaxSize         = 2000
	MaxAA           = 8
)

// Server handles web requests for the black hole renderer
type Server struct {
	port      int
	staticDir string
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

// NewServer creates a new web server. A nil logger uses slog.Default.
func NewServer(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		port:      port,
		staticDir: "static/",
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene       string            `json:"scene"`       // Preset name or scene file id
	Width       int               `json:"width"`       // Image width
	Height      int               `json:"height"`      // Image height
	AA          int               `json:"aa"`          // Sub-samples per axis of the final pass
	Passes      int               `json:"passes"`      // Progressive passes, 0 = one per AA level
	Time        float64           `json:"time"`        // Frame time in seconds
	PointerX    float64           `json:"pointerX"`    // Normalized pointer position
	PointerY    float64           `json:"pointerY"`    //
	PointerMode scene.PointerMode `json:"pointerMode"` // Empty keeps the scene's mode
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Serve static files
	mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))

	// API endpoints
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/stream", s.handleStream)

	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("Starting web server", "url", "http://localhost"+addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes and discovered scene files
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleSceneConfig returns the configuration of a scene with the request limits
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = scene.DefaultSceneName
	}

	cfg, err := scene.LoadNamedConfig(sceneName)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}

	response := map[string]interface{}{
		"scene":    sceneName,
		"defaults": cfg,
		"limits": map[string]interface{}{
			"width":    map[string]int{"min": MinSize, "max": MaxSize},
			"height":   map[string]int{"min": MinSize, "max": MaxSize},
			"aa":       map[string]int{"min": 1, "max": MaxAA},
			"passes":   map[string]int{"min": 0, "max": MaxAA},
			"pointerX": map[string]float64{"min": 0, "max": 1},
			"pointerY": map[string]float64{"min": 0, "max": 1},
		},
	}
	s.writeJSON(w, http.StatusOK, response)
}

// parseCommonSceneParams parses the parameters shared by render, inspect and stream.
// Unset values fall back to the scene's own configuration.
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) (scene.Config, error) {
	query := r.URL.Query()

	req.Scene = query.Get("scene")
	if req.Scene == "" {
		req.Scene = scene.DefaultSceneName
	}

	cfg, err := scene.LoadNamedConfig(req.Scene)
	if err != nil {
		return scene.Config{}, err
	}

	if req.Width, err = parseIntParam(query, "width", cfg.Render.Width, MinSize, MaxSize); err != nil {
		return cfg, err
	}
	if req.Height, err = parseIntParam(query, "height", cfg.Render.Height, MinSize, MaxSize); err != nil {
		return cfg, err
	}
	if req.AA, err = parseIntParam(query, "aa", cfg.Render.AA, 1, MaxAA); err != nil {
		return cfg, err
	}
	if req.Time, err = parseFloatParam(query, "time", cfg.Frame.Time, 0, 1e9); err != nil {
		return cfg, err
	}
	if req.PointerX, err = parseFloatParam(query, "pointerX", cfg.Frame.PointerX, 0, 1); err != nil {
		return cfg, err
	}
	if req.PointerY, err = parseFloatParam(query, "pointerY", cfg.Frame.PointerY, 0, 1); err != nil {
		return cfg, err
	}

	switch mode := scene.PointerMode(query.Get("pointerMode")); mode {
	case "":
	case scene.PointerModeSpin, scene.PointerModeZoom:
		req.PointerMode = mode
	default:
		return cfg, fmt.Errorf("pointerMode must be %q or %q, got: %q", scene.PointerModeSpin, scene.PointerModeZoom, mode)
	}

	return cfg, nil
}

// createScene applies the request to the scene configuration and builds it
func (s *Server) createScene(cfg scene.Config, req *RenderRequest) (*scene.Scene, error) {
	cfg.Render.Width = req.Width
	cfg.Render.Height = req.Height
	cfg.Render.AA = req.AA
	cfg.Render.Passes = req.Passes
	cfg.Render.TileSize = DefaultTileSize
	cfg.Render.NumWorkers = 0 // Auto-detect
	cfg.Frame = scene.FrameConfig{Time: req.Time, PointerX: req.PointerX, PointerY: req.PointerY}
	if req.PointerMode != "" {
		cfg.Camera.PointerMode = req.PointerMode
	}
	return scene.NewScene(cfg)
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		// The negated form also rejects NaN
		if !(parsed >= min && parsed <= max) {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write JSON response", "status", status, "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps scene lookup failures to 404 and everything else to 400
func statusFor(err error) int {
	if errors.Is(err, scene.ErrUnknownScene) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
