package overlay

import (
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestCaption_DoesNotModifyInput(t *testing.T) {
	blue := color.RGBA{0, 0, 255, 255}
	src := solid(120, 40, blue)

	out := NewCaption().Render(src, "frame 1")

	for i := 0; i < len(src.Pix); i += 4 {
		if src.Pix[i] != 0 || src.Pix[i+1] != 0 || src.Pix[i+2] != 255 {
			t.Fatalf("input pixel %d modified", i/4)
		}
	}
	if out == src {
		t.Fatal("Render returned the input image")
	}
	if out.Bounds() != src.Bounds() {
		t.Errorf("bounds = %v, want %v", out.Bounds(), src.Bounds())
	}
}

func TestCaption_DrawsInBottomLeft(t *testing.T) {
	blue := color.RGBA{0, 0, 255, 255}
	src := solid(200, 60, blue)

	out := NewCaption().Render(src, "20240102T030405.000001.png")

	if got := out.RGBAAt(0, 59); got == blue {
		t.Error("bottom-left pixel unchanged, caption box missing")
	}
	if got := out.RGBAAt(199, 0); got != blue {
		t.Errorf("top-right pixel = %v, want untouched %v", got, blue)
	}

	// Some pixel in the caption box should be bright text
	var bright bool
	for y := 40; y < 60 && !bright; y++ {
		for x := 0; x < 200; x++ {
			if c := out.RGBAAt(x, y); c.R > 200 && c.G > 200 {
				bright = true
				break
			}
		}
	}
	if !bright {
		t.Error("no text pixels found in caption area")
	}
}

func TestCaption_EmptyText(t *testing.T) {
	src := solid(10, 10, color.RGBA{1, 2, 3, 255})
	out := NewCaption().Render(src, "")
	if out.RGBAAt(0, 9) != (color.RGBA{1, 2, 3, 255}) {
		t.Error("empty caption changed the frame")
	}
}

func TestBlendImage_Clips(t *testing.T) {
	dst := solid(4, 4, color.RGBA{0, 0, 0, 255})
	src := solid(4, 4, color.RGBA{255, 255, 255, 255})

	BlendImage(dst, src, 2, 2, 1)

	if got := dst.RGBAAt(3, 3); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("overlapped pixel = %v", got)
	}
	if got := dst.RGBAAt(1, 1); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("pixel outside overlap = %v", got)
	}
}

func TestClone_NonZeroOrigin(t *testing.T) {
	src := solid(8, 8, color.RGBA{9, 9, 9, 255}).SubImage(image.Rect(2, 2, 6, 6))
	c := Clone(src)
	if c.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Errorf("bounds = %v", c.Bounds())
	}
	if c.RGBAAt(0, 0) != (color.RGBA{9, 9, 9, 255}) {
		t.Errorf("pixel = %v", c.RGBAAt(0, 0))
	}
}
