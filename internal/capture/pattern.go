package capture

import (
	"fmt"
	"time"
)

// PatternDevice produces a synthetic moving test pattern. It needs no
// hardware and is used for dry runs and tests.
type PatternDevice struct {
	width     int
	height    int
	connected bool
	running   bool
	frame     int
}

// NewPatternDevice creates a test pattern source of the given size
func NewPatternDevice(width, height int) *PatternDevice {
	return &PatternDevice{width: width, height: height}
}

// Connect validates the frame size
func (p *PatternDevice) Connect() error {
	if p.width <= 0 || p.height <= 0 {
		return fmt.Errorf("pattern size must be positive, got %dx%d", p.width, p.height)
	}
	p.connected = true
	return nil
}

// Info describes the pattern source
func (p *PatternDevice) Info() Info {
	return Info{
		Vendor: "framegrab",
		Model:  fmt.Sprintf("test pattern %dx%d", p.width, p.height),
		Serial: "0",
	}
}

// StartCapture starts producing frames
func (p *PatternDevice) StartCapture() error {
	if !p.connected {
		return ErrNotConnected
	}
	p.running = true
	return nil
}

// RetrieveFrame renders the next pattern frame: vertical color bars that
// shift one bar width every frame, with a luminance ramp from top to bottom.
func (p *PatternDevice) RetrieveFrame() (*Frame, error) {
	if !p.running {
		return nil, ErrNotStarted
	}

	bars := [...][3]byte{
		{255, 255, 255}, {255, 255, 0}, {0, 255, 255}, {0, 255, 0},
		{255, 0, 255}, {255, 0, 0}, {0, 0, 255}, {0, 0, 0},
	}
	barWidth := p.width / len(bars)
	if barWidth == 0 {
		barWidth = 1
	}

	data := make([]byte, p.width*p.height*4)
	for y := 0; y < p.height; y++ {
		shade := 255 - (y*128)/p.height
		for x := 0; x < p.width; x++ {
			c := bars[(x/barWidth+p.frame)%len(bars)]
			i := (y*p.width + x) * 4
			data[i] = byte(int(c[0]) * shade / 255)
			data[i+1] = byte(int(c[1]) * shade / 255)
			data[i+2] = byte(int(c[2]) * shade / 255)
			data[i+3] = 255
		}
	}
	p.frame++

	return &Frame{
		Data:      data,
		Width:     p.width,
		Height:    p.height,
		Format:    FormatRGBA,
		Timestamp: time.Now(),
	}, nil
}

// StopCapture stops producing frames
func (p *PatternDevice) StopCapture() error {
	p.running = false
	return nil
}

// Disconnect releases the source
func (p *PatternDevice) Disconnect() error {
	p.running = false
	p.connected = false
	return nil
}

// Name returns the device name
func (p *PatternDevice) Name() string {
	return "Test pattern"
}
