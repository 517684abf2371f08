// Package recorder runs the capture loop: it opens a session, pulls frames
// from a device until told to stop, saves each one and reports throughput.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/bryanchriswhite/framegrab/internal/capture"
	"github.com/bryanchriswhite/framegrab/internal/logger"
	"github.com/bryanchriswhite/framegrab/internal/output"
	"github.com/bryanchriswhite/framegrab/internal/overlay"
	"github.com/bryanchriswhite/framegrab/internal/session"
	"github.com/dustin/go-humanize"
)

// QuitKey stops a run when pressed. The match is case-sensitive.
const QuitKey = 'q'

// KeyPoller reports pending key presses without blocking
type KeyPoller interface {
	Poll() (rune, bool)
}

// FrameWriter saves one decoded frame and returns the bytes written
type FrameWriter interface {
	WriteFrame(path string, img image.Image) (int64, error)
}

// Observer is told about run progress, e.g. to feed the preview server
type Observer interface {
	SessionStarted(runID, dir, device string, at time.Time)
	FrameWritten(path string, bytes int64, at time.Time)
	FrameSkipped()
	SessionEnded()
}

// Config wires a Recorder. Sessions, Device and Writer are required.
type Config struct {
	Sessions  *session.Manager
	Device    capture.Device
	Writer    FrameWriter
	Preview   output.Output    // optional live sink
	Caption   *overlay.Caption // optional, applied to preview frames only
	Keys      KeyPoller        // optional
	Observer  Observer         // optional
	MaxFrames int              // 0 means unlimited
	Clock     session.Clock    // measures run duration; defaults to time.Now
}

// Recorder drives one device into one session directory per Run
type Recorder struct {
	cfg Config
}

// New creates a recorder
func New(cfg Config) *Recorder {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Recorder{cfg: cfg}
}

// Run captures into a new session under base until the quit key is pressed,
// ctx is cancelled, MaxFrames frames are saved or the device stream ends.
//
// Session, connect and start failures abort the run. Failures to retrieve,
// decode or save a single frame are logged and the frame is skipped.
func (r *Recorder) Run(ctx context.Context, base string) (*Report, error) {
	log := logger.WithComponent("recorder")
	cfg := r.cfg

	s, err := cfg.Sessions.StartSession(base)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	dev := cfg.Device
	if err := dev.Connect(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", dev.Name(), err)
	}
	disconnected := false
	defer func() {
		if !disconnected {
			_ = dev.Disconnect()
		}
	}()

	info := dev.Info()
	log.Info().Str("camera", info.String()).Str("backend", dev.Name()).Msg("Camera connected")

	if err := dev.StartCapture(); err != nil {
		if errors.Is(err, capture.ErrBandwidthExceeded) {
			log.Error().Err(err).Msg("Bandwidth exceeded")
		}
		return nil, fmt.Errorf("start capture: %w", err)
	}

	preview := cfg.Preview
	if preview != nil {
		if err := preview.Start(); err != nil {
			log.Warn().Err(err).Msg("Preview unavailable")
			preview = nil
		}
	}

	if cfg.Observer != nil {
		cfg.Observer.SessionStarted(s.RunID, s.Dir, info.String(), s.StartedAt)
	}

	report := &Report{
		RunID:      s.RunID,
		SessionDir: s.Dir,
		Device:     info.String(),
	}

	log.Info().Str("session_dir", s.Dir).Msgf("Capturing, press %q to stop", QuitKey)
	start := cfg.Clock()

loop:
	for {
		if stop := r.shouldStop(ctx, report.Written); stop != "" {
			log.Info().Str("reason", stop).Msg("Stopping capture")
			break loop
		}

		frame, err := dev.RetrieveFrame()
		if err != nil {
			if errors.Is(err, capture.ErrDeviceGone) {
				log.Warn().Err(err).Msg("Camera stream ended")
				break loop
			}
			r.skip(report, err, "capture error")
			continue
		}

		img, err := capture.Decode(frame)
		if err != nil {
			r.skip(report, err, "decode error")
			continue
		}

		if preview != nil {
			r.showPreview(preview, img, report.Written+1, frame.Timestamp)
		}

		path := cfg.Sessions.NextFramePath(s.Dir)
		n, err := cfg.Writer.WriteFrame(path, img)
		if err != nil {
			r.skip(report, err, "write error")
			continue
		}

		report.Written++
		report.Bytes += n
		if cfg.Observer != nil {
			cfg.Observer.FrameWritten(path, n, frame.Timestamp)
		}
		log.Debug().Str("path", path).Int64("bytes", n).Msg("Frame saved")
	}

	report.Duration = cfg.Clock().Sub(start)

	// The camera may already be unplugged
	_ = dev.StopCapture()
	if err := dev.Disconnect(); err != nil {
		log.Warn().Err(err).Msg("Disconnect failed")
	}
	disconnected = true

	if preview != nil {
		_ = preview.Stop()
	}
	if cfg.Observer != nil {
		cfg.Observer.SessionEnded()
	}

	count, err := cfg.Sessions.CountRegularFiles(s.Dir)
	if err != nil {
		log.Error().Err(err).Str("dir", s.Dir).Msg("Unable to count saved frames")
		count = report.Written
	}
	report.Frames = count
	report.Rate, report.RateKnown = session.Throughput(count, report.Duration)

	log.Info().
		Str("session_dir", s.Dir).
		Int("frames", report.Frames).
		Int("skipped", report.Skipped).
		Str("size", humanize.Bytes(uint64(report.Bytes))).
		Dur("duration", report.Duration).
		Str("rate", report.RateString()).
		Msg("Capture finished")

	return report, nil
}

// shouldStop returns a non-empty reason when the loop must end
func (r *Recorder) shouldStop(ctx context.Context, written int) string {
	if ctx.Err() != nil {
		return "interrupted"
	}
	if r.cfg.MaxFrames > 0 && written >= r.cfg.MaxFrames {
		return "max frames reached"
	}
	if r.cfg.Keys != nil {
		for {
			c, ok := r.cfg.Keys.Poll()
			if !ok {
				break
			}
			if c == QuitKey {
				return "quit key pressed"
			}
		}
	}
	return ""
}

func (r *Recorder) skip(report *Report, err error, msg string) {
	report.Skipped++
	logger.WithComponent("recorder").Warn().Err(err).Int("skipped", report.Skipped).Msg(msg)
	if r.cfg.Observer != nil {
		r.cfg.Observer.FrameSkipped()
	}
}

func (r *Recorder) showPreview(preview output.Output, img image.Image, seq int, ts time.Time) {
	frame := img
	if r.cfg.Caption != nil {
		frame = r.cfg.Caption.Render(img, fmt.Sprintf("#%d  %s", seq, ts.Format("15:04:05.000")))
	}
	if err := preview.WriteFrame(frame); err != nil {
		logger.WithComponent("recorder").Debug().Err(err).Msg("Preview frame dropped")
	}
}
