package capture

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBandwidthExceeded is returned by StartCapture when the bus cannot carry the stream
	ErrBandwidthExceeded = errors.New("bandwidth exceeded")
	// ErrUnsupportedFormat means the device or decoder cannot handle the pixel format
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
	// ErrNotConnected is returned when a device is used before Connect
	ErrNotConnected = errors.New("device not connected")
	// ErrNotStarted is returned by RetrieveFrame before StartCapture
	ErrNotStarted = errors.New("capture not started")
	// ErrFrameTimeout is a per-frame wait timeout
	ErrFrameTimeout = errors.New("timed out waiting for frame")
	// ErrDeviceGone means the frame source ended and no further frames will arrive
	ErrDeviceGone = errors.New("device stream ended")
)

// PixelFormat identifies the layout of Frame.Data
type PixelFormat int

const (
	FormatRGBA  PixelFormat = iota + 1 // 4 bytes per pixel, R G B A
	FormatYUYV                         // packed 4:2:2, Y0 U Y1 V
	FormatMJPEG                        // one JPEG image per frame
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA:
		return "RGBA"
	case FormatYUYV:
		return "YUYV"
	case FormatMJPEG:
		return "MJPEG"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// Frame is one raw buffer retrieved from a device. Data is owned by the
// caller; devices copy out of any driver-owned memory.
type Frame struct {
	Data      []byte
	Width     int
	Height    int
	Format    PixelFormat
	Timestamp time.Time
}

// Info identifies the connected device
type Info struct {
	Vendor string `json:"vendor"`
	Model  string `json:"model"`
	Serial string `json:"serial"`
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s %s", i.Vendor, i.Model, i.Serial)
}

// Device is a camera-like frame source. Calls happen from a single goroutine
// in the order Connect, StartCapture, RetrieveFrame..., StopCapture, Disconnect.
type Device interface {
	// Connect opens the device and negotiates the frame format
	Connect() error

	// Info describes the connected device
	Info() Info

	// StartCapture starts streaming. ErrBandwidthExceeded is reported distinctly.
	StartCapture() error

	// RetrieveFrame blocks until the next frame is available. Errors are
	// per-frame unless they wrap ErrDeviceGone.
	RetrieveFrame() (*Frame, error)

	// StopCapture stops streaming
	StopCapture() error

	// Disconnect releases the device
	Disconnect() error

	// Name returns a human-readable name for this device type
	Name() string
}
