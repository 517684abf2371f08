package capture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestDecode_RGBA(t *testing.T) {
	f := &Frame{
		Data:   []byte{1, 2, 3, 255, 4, 5, 6, 255},
		Width:  2,
		Height: 1,
		Format: FormatRGBA,
	}

	img, err := Decode(f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 2, 1) {
		t.Fatalf("bounds = %v", got)
	}
	want := color.RGBA{R: 4, G: 5, B: 6, A: 255}
	if got := img.At(1, 0); got != want {
		t.Errorf("pixel (1,0) = %v, want %v", got, want)
	}
}

func TestDecode_YUYV(t *testing.T) {
	// Two macropixels of mid grey with neutral chroma
	f := &Frame{
		Data:   []byte{128, 128, 128, 128, 16, 128, 235, 128},
		Width:  2,
		Height: 2,
		Format: FormatYUYV,
	}

	img, err := Decode(f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ycc, ok := img.(*image.YCbCr)
	if !ok {
		t.Fatalf("Decode returned %T, want *image.YCbCr", img)
	}
	if ycc.SubsampleRatio != image.YCbCrSubsampleRatio422 {
		t.Errorf("subsample ratio = %v", ycc.SubsampleRatio)
	}

	cases := []struct {
		x, y int
		want uint8
	}{
		{0, 0, 128},
		{1, 0, 128},
		{0, 1, 16},
		{1, 1, 235},
	}
	for _, tc := range cases {
		if got := ycc.Y[ycc.YOffset(tc.x, tc.y)]; got != tc.want {
			t.Errorf("Y(%d,%d) = %d, want %d", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestDecode_MJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}

	img, err := Decode(&Frame{Data: buf.Bytes(), Width: 8, Height: 8, Format: FormatMJPEG})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
		t.Errorf("bounds = %v", img.Bounds())
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
	}{
		{"nil frame", nil},
		{"short RGBA", &Frame{Data: make([]byte, 7), Width: 2, Height: 1, Format: FormatRGBA}},
		{"odd YUYV width", &Frame{Data: make([]byte, 6), Width: 3, Height: 1, Format: FormatYUYV}},
		{"short YUYV", &Frame{Data: make([]byte, 2), Width: 2, Height: 1, Format: FormatYUYV}},
		{"bad JPEG", &Frame{Data: []byte("not a jpeg"), Width: 1, Height: 1, Format: FormatMJPEG}},
		{"unknown format", &Frame{Data: make([]byte, 4), Width: 1, Height: 1, Format: PixelFormat(99)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.frame); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecode_UnknownFormatIsUnsupported(t *testing.T) {
	_, err := Decode(&Frame{Format: PixelFormat(42)})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}
