package capture

import (
	"bytes"
	"errors"
	"testing"
)

func TestPatternDevice_Lifecycle(t *testing.T) {
	d := NewPatternDevice(16, 8)

	if err := d.StartCapture(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("StartCapture before Connect: err = %v, want ErrNotConnected", err)
	}
	if err := d.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := d.RetrieveFrame(); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("RetrieveFrame before StartCapture: err = %v, want ErrNotStarted", err)
	}
	if err := d.StartCapture(); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}

	first, err := d.RetrieveFrame()
	if err != nil {
		t.Fatalf("RetrieveFrame: %v", err)
	}
	if first.Width != 16 || first.Height != 8 || first.Format != FormatRGBA {
		t.Errorf("frame = %dx%d %v", first.Width, first.Height, first.Format)
	}
	if len(first.Data) != 16*8*4 {
		t.Errorf("len(Data) = %d, want %d", len(first.Data), 16*8*4)
	}
	if first.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}

	second, err := d.RetrieveFrame()
	if err != nil {
		t.Fatalf("RetrieveFrame: %v", err)
	}
	if bytes.Equal(first.Data, second.Data) {
		t.Error("consecutive frames are identical, pattern should move")
	}

	if err := d.StopCapture(); err != nil {
		t.Errorf("StopCapture: %v", err)
	}
	if err := d.Disconnect(); err != nil {
		t.Errorf("Disconnect: %v", err)
	}
	if _, err := d.RetrieveFrame(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("RetrieveFrame after Disconnect: err = %v, want ErrNotStarted", err)
	}
}

func TestPatternDevice_InvalidSize(t *testing.T) {
	if err := NewPatternDevice(0, 10).Connect(); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestPatternDevice_FramesDecode(t *testing.T) {
	d := NewPatternDevice(4, 4)
	if err := d.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := d.StartCapture(); err != nil {
		t.Fatal(err)
	}
	f, err := d.RetrieveFrame()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(f); err != nil {
		t.Errorf("Decode: %v", err)
	}
}

func TestBGRAToRGBA(t *testing.T) {
	in := []byte{10, 20, 30, 0, 40, 50, 60, 0}
	got := bgraToRGBA(in, 2, 1)
	want := []byte{30, 20, 10, 255, 60, 50, 40, 255}
	if !bytes.Equal(got, want) {
		t.Errorf("bgraToRGBA = %v, want %v", got, want)
	}
}
