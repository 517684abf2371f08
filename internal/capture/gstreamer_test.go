package capture

import (
	"bytes"
	"errors"
	"os"
	"slices"
	"testing"
	"time"
)

func TestBuildPipeline(t *testing.T) {
	args := buildPipeline("/dev/video2", 320, 240)

	for _, want := range []string{
		"v4l2src",
		"device=/dev/video2",
		"video/x-raw,format=RGBA,width=320,height=240",
		"fd=1",
	} {
		if !slices.Contains(args, want) {
			t.Errorf("pipeline %v missing %q", args, want)
		}
	}
	if args[0] != "-q" {
		t.Errorf("first arg = %q, want -q", args[0])
	}
}

func TestParseProbeOutput(t *testing.T) {
	tests := []struct {
		name   string
		output string
		w, h   int
		ok     bool
	}{
		{
			name: "v4l2src caps",
			output: "Setting pipeline to PAUSED ...\n" +
				"/GstPipeline:pipeline0/GstV4l2Src:v4l2src0.GstPad:src: caps = video/x-raw, format=(string)YUY2, width=(int)1280, height=(int)720, framerate=(fraction)10/1\n",
			w: 1280, h: 720, ok: true,
		},
		{
			name:   "untyped fields",
			output: "/GstPipeline:pipeline0/GstFakeSink:fakesink0.GstPad:sink: caps = video/x-raw, width=640, height=480\n",
			w:      640, h: 480, ok: true,
		},
		{
			name:   "no caps",
			output: "ERROR: from element /GstPipeline:pipeline0/GstV4l2Src:v4l2src0: Cannot identify device '/dev/video9'.\n",
		},
		{
			name:   "caps without size",
			output: "/GstPipeline:pipeline0/GstV4l2Src:v4l2src0.GstPad:src: caps = video/x-raw, width=(int)0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, ok := parseProbeOutput(tt.output)
			if ok != tt.ok || w != tt.w || h != tt.h {
				t.Errorf("parseProbeOutput = (%d, %d, %v), want (%d, %d, %v)", w, h, ok, tt.w, tt.h, tt.ok)
			}
		})
	}
}

func TestExtractIntFromCaps(t *testing.T) {
	caps := "video/x-raw, format=(string)RGBA, width=(int)1920, height=1080"
	if got := extractIntFromCaps(caps, "width"); got != 1920 {
		t.Errorf("width = %d, want 1920", got)
	}
	if got := extractIntFromCaps(caps, "height"); got != 1080 {
		t.Errorf("height = %d, want 1080", got)
	}
	if got := extractIntFromCaps(caps, "depth"); got != 0 {
		t.Errorf("depth = %d, want 0", got)
	}
}

func TestGStreamerDevice_NotConnected(t *testing.T) {
	d := NewGStreamerDevice("/dev/video0", 640, 480, 0)
	if err := d.StartCapture(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("StartCapture err = %v, want ErrNotConnected", err)
	}
	if _, err := d.RetrieveFrame(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("RetrieveFrame err = %v, want ErrNotStarted", err)
	}
	if err := d.Disconnect(); err != nil {
		t.Errorf("Disconnect: %v", err)
	}
}

func TestGStreamerDevice_TimeoutMidFrameKeepsAlignment(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	// 2x2 RGBA, 16 bytes per frame
	d := NewGStreamerDevice("/dev/video0", 2, 2, 100*time.Millisecond)
	d.attach(r)

	frameA := bytes.Repeat([]byte{0xaa}, 16)
	frameB := bytes.Repeat([]byte{0xbb}, 16)

	if _, err := w.Write(frameA[:8]); err != nil {
		t.Fatal(err)
	}
	if _, err := d.RetrieveFrame(); !errors.Is(err, ErrFrameTimeout) {
		t.Fatalf("half frame: err = %v, want ErrFrameTimeout", err)
	}

	if _, err := w.Write(append(frameA[8:], frameB...)); err != nil {
		t.Fatal(err)
	}
	for i, want := range [][]byte{frameA, frameB} {
		f, err := d.RetrieveFrame()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(f.Data, want) {
			t.Errorf("frame %d = % x, want % x", i, f.Data, want)
		}
		if f.Format != FormatRGBA || f.Width != 2 || f.Height != 2 {
			t.Errorf("frame %d = %v %dx%d, want RGBA 2x2", i, f.Format, f.Width, f.Height)
		}
	}

	w.Close()
	if _, err := d.RetrieveFrame(); !errors.Is(err, ErrDeviceGone) {
		t.Errorf("closed pipe: err = %v, want ErrDeviceGone", err)
	}
}
