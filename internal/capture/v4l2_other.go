//go:build !linux

package capture

import (
	"errors"
	"time"
)

var errV4L2Unavailable = errors.New("v4l2 capture is only available on linux")

// V4L2Device is unavailable on this platform
type V4L2Device struct{}

// NewV4L2Device returns a device whose Connect always fails
func NewV4L2Device(path string, format PixelFormat, width, height int, timeout time.Duration) *V4L2Device {
	return &V4L2Device{}
}

func (d *V4L2Device) Connect() error                 { return errV4L2Unavailable }
func (d *V4L2Device) Info() Info                     { return Info{} }
func (d *V4L2Device) StartCapture() error            { return errV4L2Unavailable }
func (d *V4L2Device) RetrieveFrame() (*Frame, error) { return nil, errV4L2Unavailable }
func (d *V4L2Device) StopCapture() error             { return nil }
func (d *V4L2Device) Disconnect() error              { return nil }
func (d *V4L2Device) Name() string                   { return "V4L2" }

// FormatInfo describes one pixel format offered by a V4L2 device
type FormatInfo struct {
	FourCC      string
	Description string
	FrameSizes  []string
}

// ListFormats is unavailable on this platform
func ListFormats(path string) ([]FormatInfo, error) {
	return nil, errV4L2Unavailable
}
