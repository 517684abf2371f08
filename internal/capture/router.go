package capture

import (
	"fmt"
	"strings"
	"time"

	"github.com/bryanchriswhite/framegrab/internal/config"
	"github.com/bryanchriswhite/framegrab/internal/logger"
)

// ParsePixelFormat maps a configured pixel format name to a PixelFormat
func ParsePixelFormat(name string) (PixelFormat, error) {
	switch strings.ToLower(name) {
	case "yuyv", "yuy2":
		return FormatYUYV, nil
	case "mjpeg", "mjpg":
		return FormatMJPEG, nil
	case "rgba":
		return FormatRGBA, nil
	default:
		return 0, fmt.Errorf("pixel format %q: %w", name, ErrUnsupportedFormat)
	}
}

// Open builds the device selected by cfg. The device is not yet connected.
func Open(cfg config.CameraConfig) (Device, error) {
	log := logger.WithComponent("capture")
	timeout := time.Duration(cfg.TimeoutSec) * time.Second

	var dev Device
	switch cfg.Type {
	case config.CameraV4L2, "":
		format, err := ParsePixelFormat(cfg.PixelFormat)
		if err != nil {
			return nil, err
		}
		dev = NewV4L2Device(cfg.DevicePath(), format, cfg.Width, cfg.Height, timeout)
	case config.CameraGStreamer:
		dev = NewGStreamerDevice(cfg.DevicePath(), cfg.Width, cfg.Height, timeout)
	case config.CameraX11:
		dev = NewX11Capturer(cfg.Width, cfg.Height)
	case config.CameraPattern:
		dev = NewPatternDevice(cfg.Width, cfg.Height)
	default:
		return nil, fmt.Errorf("unknown camera type %q", cfg.Type)
	}

	log.Debug().
		Str("type", cfg.Type).
		Str("device", cfg.DevicePath()).
		Str("backend", dev.Name()).
		Msg("Selected capture backend")
	return dev, nil
}
