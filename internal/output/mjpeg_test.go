package output

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDownscale(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		maxWidth int
		wantW    int
		wantH    int
	}{
		{"wider than max", 1280, 720, 640, 640, 360},
		{"narrower than max", 320, 240, 640, 320, 240},
		{"scaling disabled", 1280, 720, 0, 1280, 720},
		{"extreme aspect", 1000, 1, 10, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Downscale(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.maxWidth).Bounds()
			if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("Downscale = %dx%d, want %dx%d", got.Dx(), got.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestMJPEGOutput_WriteFrameRequiresStart(t *testing.T) {
	m := NewMJPEGOutput(Config{MaxWidth: 64})
	if err := m.WriteFrame(testImage(8, 8)); err == nil {
		t.Fatal("expected error writing to a stopped output")
	}
}

func TestMJPEGOutput_Stats(t *testing.T) {
	m := NewMJPEGOutput(Config{MaxWidth: 16, Quality: 50})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(); err == nil {
		t.Error("second Start should fail")
	}

	for i := 0; i < 3; i++ {
		if err := m.WriteFrame(testImage(64, 32)); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	s := m.Stats()
	if !s.Running || s.Frames != 3 || s.Clients != 0 {
		t.Errorf("Stats = %+v", s)
	}
	if s.LastUpdate.IsZero() {
		t.Error("LastUpdate not set")
	}

	img, err := jpeg.Decode(bytes.NewReader(m.LatestJPEG()))
	if err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Errorf("latest preview is %v, want 16x8", img.Bounds())
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if m.IsRunning() {
		t.Error("still running after Stop")
	}
}

func TestMJPEGOutput_StreamSendsLatestFrame(t *testing.T) {
	m := NewMJPEGOutput(Config{})
	srv := httptest.NewServer(m.GetHTTPHandler())
	defer srv.Close()

	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	defer m.Stop()

	if err := m.WriteFrame(testImage(8, 8)); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("Content-Type = %q", ct)
	}

	part, err := multipart.NewReader(resp.Body, "frame").NextPart()
	if err != nil {
		t.Fatalf("NextPart: %v", err)
	}
	if ct := part.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("part Content-Type = %q", ct)
	}
	data, err := io.ReadAll(io.LimitReader(part, int64(len(m.LatestJPEG()))))
	if err != nil {
		t.Fatalf("read part: %v", err)
	}
	if !bytes.Equal(data, m.LatestJPEG()) {
		t.Error("streamed frame differs from latest preview frame")
	}
}
