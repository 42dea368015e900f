package integrator

import (
	"github.com/df07/go-blackhole-raytracer/pkg/core"
)

// State classifies where a traced ray ended up
type State int

const (
	// Tracing is the only non-terminal state
	Tracing State = iota
	// Absorbed rays fell inside the absorption radius
	Absorbed
	// Escaped rays left the escape radius and sampled the background
	Escaped
	// Exhausted rays used every batch without doing either
	Exhausted
)

func (s State) String() string {
	switch s {
	case Tracing:
		return "tracing"
	case Absorbed:
		return "absorbed"
	case Escaped:
		return "escaped"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the state ends a trace
func (s State) Terminal() bool {
	return s != Tracing
}

// TraceResult is the outcome of tracing one camera ray
type TraceResult struct {
	Color         core.Color // Final linear color, A = 1
	State         State
	Batches       int       // Outer iterations used
	DiskHits      int       // Disk plane crossings integrated
	FinalPosition core.Vec3 // Where the ray was when it terminated
	Disk          core.Color
	Glow          core.Color
	Background    core.Color // Only set for escaped rays
}

// Integrator defines the interface for the per-ray light transport
type Integrator interface {
	// Trace follows a camera ray and returns its final color.
	// time is the frame time in seconds; it animates the disk.
	Trace(ray core.Ray, time float64) TraceResult
}
