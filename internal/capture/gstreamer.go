package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bryanchriswhite/framegrab/internal/logger"
)

const gstLaunch = "gst-launch-1.0"

// GStreamerDevice reads a camera through a gst-launch-1.0 subprocess.
// The pipeline converts whatever the camera offers to raw RGBA and writes
// it to stdout, one frame after another with no framing.
type GStreamerDevice struct {
	device  string
	width   int
	height  int
	timeout time.Duration

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	buf    []byte
	off    int // bytes of the current frame already read
	info   Info
	probed bool
}

// NewGStreamerDevice creates a subprocess-backed camera for a v4l2 node.
// Zero width or height means probe the camera's native size on Connect.
func NewGStreamerDevice(device string, width, height int, timeout time.Duration) *GStreamerDevice {
	return &GStreamerDevice{
		device:  device,
		width:   width,
		height:  height,
		timeout: timeout,
	}
}

// Connect checks that gst-launch-1.0 is installed and resolves the frame size
func (g *GStreamerDevice) Connect() error {
	log := logger.WithComponent("gstreamer")

	bin, err := exec.LookPath(gstLaunch)
	if err != nil {
		return fmt.Errorf("%s not found: %w", gstLaunch, err)
	}

	if g.width <= 0 || g.height <= 0 {
		w, h, err := g.probeVideoDimensions()
		if err != nil {
			return err
		}
		g.width, g.height = w, h
		g.probed = true
	}

	g.info = Info{
		Vendor: "GStreamer",
		Model:  fmt.Sprintf("v4l2src %dx%d", g.width, g.height),
		Serial: g.device,
	}

	log.Debug().
		Str("binary", bin).
		Int("width", g.width).
		Int("height", g.height).
		Bool("probed", g.probed).
		Msg("GStreamer source ready")
	return nil
}

// Info describes the source
func (g *GStreamerDevice) Info() Info {
	return g.info
}

// buildPipeline returns the gst-launch-1.0 arguments for streaming RGBA to stdout
func buildPipeline(device string, width, height int) []string {
	return []string{
		"-q",
		"v4l2src", "device=" + device, "do-timestamp=true", "!",
		"videoconvert", "!",
		"videoscale", "!",
		fmt.Sprintf("video/x-raw,format=RGBA,width=%d,height=%d", width, height), "!",
		"fdsink", "fd=1", "sync=false",
	}
}

// StartCapture launches the subprocess
func (g *GStreamerDevice) StartCapture() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.info.Serial == "" {
		return ErrNotConnected
	}
	if g.cmd != nil {
		return fmt.Errorf("pipeline already running")
	}

	log := logger.WithComponent("gstreamer")

	args := buildPipeline(g.device, g.width, g.height)
	log.Debug().Strs("args", args).Msg("Starting GStreamer subprocess")

	cmd := exec.Command(gstLaunch, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", gstLaunch, err)
	}

	g.cmd = cmd
	g.attach(stdout)

	go logStderr(stderr)

	log.Info().Str("device", g.device).Int("pid", cmd.Process.Pid).Msg("GStreamer subprocess started")
	return nil
}

// attach sets up frame buffering on the subprocess stdout
func (g *GStreamerDevice) attach(stdout io.ReadCloser) {
	frameSize := g.width * g.height * 4
	g.stdout = stdout
	g.reader = bufio.NewReaderSize(stdout, frameSize)
	g.buf = make([]byte, frameSize)
	g.off = 0
}

// RetrieveFrame reads exactly one RGBA frame from the subprocess. A closed
// pipe means the pipeline exited, usually because the camera went away.
// A timeout mid-frame keeps the bytes read so far and the next call
// completes the same frame, so the stream stays frame-aligned.
func (g *GStreamerDevice) RetrieveFrame() (*Frame, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.reader == nil {
		return nil, ErrNotStarted
	}

	if f, ok := g.stdout.(*os.File); ok && g.timeout > 0 {
		_ = f.SetReadDeadline(time.Now().Add(g.timeout))
	}

	n, err := io.ReadFull(g.reader, g.buf[g.off:])
	g.off += n
	if err != nil {
		switch {
		case errors.Is(err, os.ErrDeadlineExceeded):
			return nil, ErrFrameTimeout
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil, fmt.Errorf("pipeline closed after %d bytes: %w", g.off, ErrDeviceGone)
		default:
			return nil, fmt.Errorf("read frame: %w", err)
		}
	}
	g.off = 0

	data := make([]byte, len(g.buf))
	copy(data, g.buf)

	return &Frame{
		Data:      data,
		Width:     g.width,
		Height:    g.height,
		Format:    FormatRGBA,
		Timestamp: time.Now(),
	}, nil
}

// StopCapture kills the subprocess
func (g *GStreamerDevice) StopCapture() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cmd == nil {
		return nil
	}

	log := logger.WithComponent("gstreamer")
	if g.cmd.Process != nil {
		log.Debug().Int("pid", g.cmd.Process.Pid).Msg("Killing GStreamer subprocess")
		_ = g.cmd.Process.Kill()
	}
	_ = g.cmd.Wait()

	g.cmd = nil
	g.stdout = nil
	g.reader = nil
	g.off = 0
	log.Info().Msg("GStreamer subprocess stopped")
	return nil
}

// Disconnect stops the subprocess if it is still running
func (g *GStreamerDevice) Disconnect() error {
	return g.StopCapture()
}

// Name returns the device name
func (g *GStreamerDevice) Name() string {
	return "GStreamer"
}

// probeVideoDimensions runs a one-buffer pipeline and reads the negotiated caps
func (g *GStreamerDevice) probeVideoDimensions() (int, int, error) {
	log := logger.WithComponent("gstreamer")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, gstLaunch, "-v",
		"v4l2src", "device="+g.device, "num-buffers=1", "!", "fakesink")
	output, err := cmd.CombinedOutput()
	if err != nil {
		// Caps are printed before most failures, so still try to parse
		log.Debug().Err(err).Str("output", string(output)).Msg("Probe command output")
	}

	w, h, ok := parseProbeOutput(string(output))
	if !ok {
		return 0, 0, fmt.Errorf("could not determine video dimensions of %s", g.device)
	}
	return w, h, nil
}

// parseProbeOutput finds the first caps line carrying a frame size, e.g.
// /GstPipeline:pipeline0/GstV4l2Src:v4l2src0.GstPad:src: caps = video/x-raw, format=(string)YUY2, width=(int)640, height=(int)480
func parseProbeOutput(output string) (int, int, bool) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "caps = ") || !strings.Contains(line, "width=") {
			continue
		}
		w := extractIntFromCaps(line, "width")
		h := extractIntFromCaps(line, "height")
		if w > 0 && h > 0 {
			return w, h, true
		}
	}
	return 0, 0, false
}

// extractIntFromCaps extracts an integer field such as "width=(int)1920" or "width=1920"
func extractIntFromCaps(caps, key string) int {
	for _, pattern := range []string{key + "=(int)", key + "="} {
		idx := strings.Index(caps, pattern)
		if idx < 0 {
			continue
		}
		start := idx + len(pattern)
		end := start
		for end < len(caps) && caps[end] >= '0' && caps[end] <= '9' {
			end++
		}
		if end > start {
			if v, err := strconv.Atoi(caps[start:end]); err == nil {
				return v
			}
		}
	}
	return 0
}

func logStderr(r io.Reader) {
	log := logger.WithComponent("gstreamer")
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "ERROR") || strings.Contains(line, "WARN") {
			log.Warn().Str("gst", line).Msg("GStreamer message")
		} else {
			log.Debug().Str("gst", line).Msg("GStreamer output")
		}
	}
}
