package core

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		frame   FrameParams
		wantErr error
	}{
		{"valid", NewFrameParams(800, 600, 0), nil},
		{"zero width", NewFrameParams(0, 600, 0), ErrInvalidViewport},
		{"negative height", NewFrameParams(800, -1, 0), ErrInvalidViewport},
		{"negative time", NewFrameParams(800, 600, -1), ErrInvalidTime},
		{"NaN time", NewFrameParams(800, 600, math.NaN()), ErrInvalidTime},
		{"infinite time", NewFrameParams(800, 600, math.Inf(1)), ErrInvalidTime},
		{"pointer out of range", FrameParams{Width: 1, Height: 1, PointerX: 1.5}, ErrInvalidPointer},
		{"NaN pointer", FrameParams{Width: 1, Height: 1, PointerY: math.NaN()}, ErrInvalidPointer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFrameParams_WithPointer(t *testing.T) {
	f := NewFrameParams(10, 10, 1).WithPointer(-2, 3, true)
	assert.Equal(t, 0.0, f.PointerX)
	assert.Equal(t, 1.0, f.PointerY)
	assert.True(t, f.PointerPressed)
	require.NoError(t, f.Validate())

	f = f.WithPointer(math.NaN(), math.NaN(), false)
	assert.Equal(t, 0.5, f.PointerX)
	assert.Equal(t, 0.5, f.PointerY)
}

func TestClock_Advance(t *testing.T) {
	var c Clock
	assert.Equal(t, 0.5, c.Advance(0.5))
	assert.Equal(t, 0.5, c.Advance(-1), "negative deltas are ignored")
	assert.Equal(t, 0.5, c.Advance(math.Inf(1)))
	assert.Equal(t, 0.75, c.Advance(0.25))
	assert.Equal(t, 0.75, c.Elapsed())
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	logger.Printf("Pass %d completed\n", 3)
	assert.Contains(t, buf.String(), "Pass 3 completed")

	buf.Reset()
	quiet := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	quiet.Printf("hidden")
	assert.Empty(t, buf.String())

	NopLogger.Printf("nothing %d", 1)
}
