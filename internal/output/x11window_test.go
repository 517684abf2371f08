package output

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestLetterbox(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	src := image.NewRGBA(image.Rect(0, 0, 40, 10))
	for i := 0; i < len(src.Pix); i += 4 {
		copy(src.Pix[i:], []byte{255, 0, 0, 255})
	}

	// 4:1 source into a square window leaves bars above and below
	dst := Letterbox(src, 20, 20)

	if dst.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Fatalf("bounds = %v", dst.Bounds())
	}
	if got := dst.RGBAAt(10, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("top bar pixel = %v, want black", got)
	}
	if got := dst.RGBAAt(10, 10); got.R < 250 || got.G != 0 || got.B != 0 {
		t.Errorf("center pixel = %v, want %v", got, red)
	}
	if got := dst.RGBAAt(10, 19); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("bottom bar pixel = %v, want black", got)
	}
}

func TestPackZPixmap(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(0, 0, color.RGBA{1, 2, 3, 4})
	img.SetRGBA(2, 1, color.RGBA{5, 6, 7, 8})

	tests := []struct {
		name       string
		bpp, pad   int
		keepAlpha  bool
		wantStride int
		first      []byte
		last       []byte
	}{
		{"32bpp depth 24", 4, 4, false, 12, []byte{3, 2, 1, 0}, []byte{7, 6, 5, 0}},
		{"32bpp depth 32", 4, 4, true, 12, []byte{3, 2, 1, 4}, []byte{7, 6, 5, 8}},
		{"24bpp padded", 3, 4, false, 12, []byte{3, 2, 1}, []byte{7, 6, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, stride := packZPixmap(img, tt.bpp, tt.pad, tt.keepAlpha)
			if stride != tt.wantStride {
				t.Fatalf("stride = %d, want %d", stride, tt.wantStride)
			}
			if len(data) != stride*2 {
				t.Fatalf("len(data) = %d, want %d", len(data), stride*2)
			}
			if got := data[:tt.bpp]; !bytes.Equal(got, tt.first) {
				t.Errorf("pixel (0,0) = %v, want %v", got, tt.first)
			}
			off := stride + 2*tt.bpp
			if got := data[off : off+tt.bpp]; !bytes.Equal(got, tt.last) {
				t.Errorf("pixel (2,1) = %v, want %v", got, tt.last)
			}
		})
	}
}

func TestRowsPerRequest(t *testing.T) {
	tests := []struct {
		stride, height, want int
	}{
		{640 * 4, 480, (maxRequestBytes - 24) / (640 * 4)},
		{100, 10, 10},
		{maxRequestBytes * 2, 5, 1},
	}
	for _, tt := range tests {
		got := rowsPerRequest(tt.stride, tt.height)
		if got != tt.want {
			t.Errorf("rowsPerRequest(%d, %d) = %d, want %d", tt.stride, tt.height, got, tt.want)
		}
		if tt.stride <= maxRequestBytes && got*tt.stride > maxRequestBytes {
			t.Errorf("rowsPerRequest(%d, %d) = %d exceeds request limit", tt.stride, tt.height, got)
		}
	}
}

func TestX11Window_WriteBeforeStart(t *testing.T) {
	w := NewX11Window("test", 64, 48)
	if err := w.WriteFrame(image.NewRGBA(image.Rect(0, 0, 4, 4))); err == nil {
		t.Fatal("expected error writing to a closed window")
	}
	if w.IsRunning() {
		t.Error("IsRunning before Start")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop before Start: %v", err)
	}
}
