package output

import (
	"errors"
	"image"
	"testing"
)

type fakeOutput struct {
	name     string
	startErr error
	writeErr error
	running  bool
	frames   int
}

func (f *fakeOutput) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}
func (f *fakeOutput) Stop() error { f.running = false; return nil }
func (f *fakeOutput) WriteFrame(image.Image) error {
	f.frames++
	return f.writeErr
}
func (f *fakeOutput) Name() string    { return f.name }
func (f *fakeOutput) IsRunning() bool { return f.running }

func TestMulti_SkipsOutputsThatFailToStart(t *testing.T) {
	ok := &fakeOutput{name: "mjpeg"}
	broken := &fakeOutput{name: "window", startErr: errors.New("no display")}
	m := NewMulti(ok, broken)

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !m.IsRunning() {
		t.Error("IsRunning = false")
	}

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := m.WriteFrame(img); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if ok.frames != 1 || broken.frames != 0 {
		t.Errorf("frames = %d/%d, want 1/0", ok.frames, broken.frames)
	}
	if got := m.Name(); got != "mjpeg + window" {
		t.Errorf("Name = %q", got)
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if ok.running || m.IsRunning() {
		t.Error("outputs still running after Stop")
	}
}

func TestMulti_AllFailToStart(t *testing.T) {
	m := NewMulti(&fakeOutput{startErr: errors.New("a")}, &fakeOutput{startErr: errors.New("b")})
	if err := m.Start(); err == nil {
		t.Fatal("expected error when no output starts")
	}
}

func TestMulti_WriteErrorsAreJoined(t *testing.T) {
	bad := errors.New("encode failed")
	good := &fakeOutput{}
	m := NewMulti(&fakeOutput{writeErr: bad}, good)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}

	err := m.WriteFrame(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if !errors.Is(err, bad) {
		t.Errorf("err = %v, want %v", err, bad)
	}
	if good.frames != 1 {
		t.Error("healthy output skipped after a failing one")
	}
}
