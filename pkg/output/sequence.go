package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/df07/go-blackhole-raytracer/pkg/renderer"
)

// SequenceWriter saves numbered frames, frame_0000.png, frame_0001.png, ...
type SequenceWriter struct {
	Dir    string
	Prefix string
	Format Format
}

// NewSequenceWriter creates the output directory and returns a writer into it
func NewSequenceWriter(dir string, format Format) (*SequenceWriter, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sequence directory: %w", err)
	}
	return &SequenceWriter{Dir: dir, Prefix: "frame_", Format: format}, nil
}

// FramePath returns the file name of frame index
func (s *SequenceWriter) FramePath(index int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s%04d%s", s.Prefix, index, s.Format.Extension()))
}

// WriteFrame saves one frame and returns its path
func (s *SequenceWriter) WriteFrame(index int, buffer *renderer.FrameBuffer) (string, error) {
	path := s.FramePath(index)
	if err := SaveImage(path, buffer); err != nil {
		return "", err
	}
	return path, nil
}
