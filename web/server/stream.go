package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/renderer"
	"github.com/gorilla/websocket"
)

// Stream limits
const (
	DefaultStreamFPS = 30
	MaxStreamFPS     = 60
	streamWriteWait  = 5 * time.Second
)

// PointerMessage is what the browser sends on the stream socket
type PointerMessage struct {
	PointerX float64 `json:"pointerX"`
	PointerY float64 `json:"pointerY"`
	Pressed  bool    `json:"pressed"`
	Width    int     `json:"width,omitempty"` // Resizes the stream when set
	Height   int     `json:"height,omitempty"`
}

// streamInput is the latest client input, shared between the reader and the render loop
type streamInput struct {
	mu       sync.Mutex
	pointerX float64
	pointerY float64
	pressed  bool
	width    int
	height   int
}

// apply latches the pointer position only while the button is held
func (in *streamInput) apply(msg PointerMessage) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.pressed = msg.Pressed
	if msg.Pressed {
		in.pointerX = msg.PointerX
		in.pointerY = msg.PointerY
	}
	if msg.Width >= MinSize && msg.Width <= MaxSize && msg.Height >= MinSize && msg.Height <= MaxSize {
		in.width = msg.Width
		in.height = msg.Height
	}
}

func (in *streamInput) frame(time float64) core.FrameParams {
	in.mu.Lock()
	defer in.mu.Unlock()
	return core.NewFrameParams(in.width, in.height, time).WithPointer(in.pointerX, in.pointerY, in.pressed)
}

// handleStream renders frames continuously and sends each one as a binary PNG
// message. The clock advances by the real time between frames.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req := &RenderRequest{}
	cfg, err := s.parseCommonSceneParams(r, req)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}

	query := r.URL.Query()
	fps, err := parseIntParam(query, "fps", DefaultStreamFPS, 1, MaxStreamFPS)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxFrames, err := parseIntParam(query, "frames", 0, 0, 1<<20)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sceneObj, err := s.createScene(cfg, req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		s.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	input := &streamInput{
		pointerX: req.PointerX,
		pointerY: req.PointerY,
		width:    req.Width,
		height:   req.Height,
	}
	go s.readPointerMessages(conn, input, cancel)

	frameRenderer := renderer.NewFrameRenderer(sceneObj, nil)
	defer frameRenderer.Close()

	s.logger.Info("Stream started", "scene", req.Scene, "width", req.Width, "height", req.Height, "fps", fps)
	sent, err := s.streamFrames(ctx, conn, frameRenderer, input, req.Time, fps, maxFrames)
	if err != nil && ctx.Err() == nil {
		s.logger.Warn("Stream stopped", "frames", sent, "error", err)
		return
	}
	s.logger.Info("Stream finished", "frames", sent)

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
	conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(streamWriteWait))
}

// readPointerMessages applies client messages until the socket closes
func (s *Server) readPointerMessages(conn *websocket.Conn, input *streamInput, cancel context.CancelFunc) {
	defer cancel()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg PointerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("Ignoring malformed stream message", "error", err)
			continue
		}
		input.apply(msg)
	}
}

// streamFrames is the render loop of a stream. It returns the number of frames sent.
func (s *Server) streamFrames(ctx context.Context, conn *websocket.Conn, frameRenderer *renderer.FrameRenderer,
	input *streamInput, startTime float64, fps, maxFrames int) (int, error) {

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	clock := &core.Clock{}
	clock.Advance(startTime)
	last := time.Now()

	sent := 0
	for maxFrames == 0 || sent < maxFrames {
		frame := input.frame(clock.Elapsed())
		buffer, _, err := frameRenderer.Render(ctx, frame)
		if err != nil {
			return sent, err
		}

		data, err := encodePNG(buffer.ToRGBA())
		if err != nil {
			return sent, fmt.Errorf("failed to encode frame: %w", err)
		}
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			return sent, err
		}
		sent++

		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		case now := <-ticker.C:
			clock.Advance(now.Sub(last).Seconds())
			last = now
		}
	}
	return sent, nil
}
