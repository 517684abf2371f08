//go:build linux

package capture

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/blackjack/webcam"
	"github.com/bryanchriswhite/framegrab/internal/logger"
	"golang.org/x/sys/unix"
)

// V4L2 fourcc codes
const (
	fourccYUYV webcam.PixelFormat = 0x56595559 // 'YUYV'
	fourccMJPG webcam.PixelFormat = 0x47504A4D // 'MJPG'
)

// V4L2Device captures from a Video4Linux2 camera node such as /dev/video0
type V4L2Device struct {
	path    string
	format  PixelFormat
	width   uint32
	height  uint32
	timeout time.Duration

	cam     *webcam.Webcam
	info    Info
	running bool
}

// NewV4L2Device creates a V4L2 camera for path. format selects YUYV or MJPEG.
func NewV4L2Device(path string, format PixelFormat, width, height int, timeout time.Duration) *V4L2Device {
	return &V4L2Device{
		path:    path,
		format:  format,
		width:   uint32(width),
		height:  uint32(height),
		timeout: timeout,
	}
}

func fourccFor(f PixelFormat) (webcam.PixelFormat, error) {
	switch f {
	case FormatYUYV:
		return fourccYUYV, nil
	case FormatMJPEG:
		return fourccMJPG, nil
	default:
		return 0, fmt.Errorf("v4l2 %v: %w", f, ErrUnsupportedFormat)
	}
}

// Connect opens the node and negotiates the pixel format and frame size
func (d *V4L2Device) Connect() error {
	log := logger.WithComponent("v4l2")

	want, err := fourccFor(d.format)
	if err != nil {
		return err
	}

	cam, err := webcam.Open(d.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", d.path, err)
	}

	formats := cam.GetSupportedFormats()
	desc, ok := formats[want]
	if !ok {
		cam.Close()
		return fmt.Errorf("%s does not offer %v: %w", d.path, d.format, ErrUnsupportedFormat)
	}

	got, w, h, err := cam.SetImageFormat(want, d.width, d.height)
	if err != nil {
		cam.Close()
		return fmt.Errorf("set image format on %s: %w", d.path, err)
	}
	if got != want {
		cam.Close()
		return fmt.Errorf("%s negotiated fourcc %#x instead of %v: %w", d.path, uint32(got), d.format, ErrUnsupportedFormat)
	}
	if w != d.width || h != d.height {
		log.Warn().
			Uint32("requested_width", d.width).
			Uint32("requested_height", d.height).
			Uint32("width", w).
			Uint32("height", h).
			Msg("Camera adjusted frame size")
	}
	d.width, d.height = w, h

	d.cam = cam
	d.info = Info{
		Vendor: "V4L2",
		Model:  strings.TrimSpace(desc),
		Serial: d.path,
	}
	return nil
}

// Info describes the connected camera
func (d *V4L2Device) Info() Info {
	return d.info
}

// StartCapture maps buffers and starts streaming. The kernel reports ENOSPC
// when the USB bus cannot reserve bandwidth for the stream.
func (d *V4L2Device) StartCapture() error {
	if d.cam == nil {
		return ErrNotConnected
	}
	if err := d.cam.StartStreaming(); err != nil {
		if errors.Is(err, unix.ENOSPC) {
			return fmt.Errorf("start streaming %s: %w", d.path, ErrBandwidthExceeded)
		}
		return fmt.Errorf("start streaming %s: %w", d.path, err)
	}
	d.running = true
	return nil
}

// RetrieveFrame waits for the next buffer and copies it out of driver memory
func (d *V4L2Device) RetrieveFrame() (*Frame, error) {
	if !d.running {
		return nil, ErrNotStarted
	}

	secs := uint32(d.timeout / time.Second)
	if secs == 0 {
		secs = 1
	}
	if err := d.cam.WaitForFrame(secs); err != nil {
		var timeout *webcam.Timeout
		if errors.As(err, &timeout) {
			return nil, ErrFrameTimeout
		}
		return nil, fmt.Errorf("wait for frame: %w", err)
	}

	buf, err := d.cam.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("read frame: empty buffer")
	}

	data := make([]byte, len(buf))
	copy(data, buf)

	return &Frame{
		Data:      data,
		Width:     int(d.width),
		Height:    int(d.height),
		Format:    d.format,
		Timestamp: time.Now(),
	}, nil
}

// StopCapture stops streaming
func (d *V4L2Device) StopCapture() error {
	if d.cam == nil || !d.running {
		return nil
	}
	d.running = false
	return d.cam.StopStreaming()
}

// Disconnect closes the device node
func (d *V4L2Device) Disconnect() error {
	if d.cam == nil {
		return nil
	}
	err := d.cam.Close()
	d.cam = nil
	return err
}

// Name returns the device name
func (d *V4L2Device) Name() string {
	return "V4L2"
}

// FormatInfo describes one pixel format offered by a V4L2 device
type FormatInfo struct {
	FourCC      string
	Description string
	FrameSizes  []string
}

// ListFormats enumerates the pixel formats and frame sizes of a V4L2 node
func ListFormats(path string) ([]FormatInfo, error) {
	cam, err := webcam.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer cam.Close()

	var out []FormatInfo
	for pf, desc := range cam.GetSupportedFormats() {
		fi := FormatInfo{
			FourCC:      fourccString(uint32(pf)),
			Description: strings.TrimSpace(desc),
		}
		for _, fs := range cam.GetSupportedFrameSizes(pf) {
			fi.FrameSizes = append(fi.FrameSizes, fs.GetString())
		}
		out = append(out, fi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FourCC < out[j].FourCC })
	return out, nil
}

func fourccString(v uint32) string {
	return string([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}
