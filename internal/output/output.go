package output

import (
	"image"
	"time"
)

// Output is a live sink for captured frames, such as the MJPEG preview.
// Frames handed to an Output are never the saved frames themselves; sinks
// may scale or annotate them freely.
type Output interface {
	// Start initializes the output mechanism
	Start() error

	// Stop cleanly shuts down the output
	Stop() error

	// WriteFrame sends a frame to the output
	WriteFrame(frame image.Image) error

	// Name returns a human-readable name for this output type
	Name() string

	// IsRunning returns true if the output is currently active
	IsRunning() bool
}

// Config holds preview output settings
type Config struct {
	MaxWidth int // frames wider than this are downscaled; 0 disables scaling
	Quality  int // JPEG quality 1-100
}

// Stats is a snapshot of an output's counters
type Stats struct {
	Running    bool
	Frames     uint64
	Clients    int
	LastUpdate time.Time
	StartedAt  time.Time
}
