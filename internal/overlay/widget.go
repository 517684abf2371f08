package overlay

import (
	"image"
	"image/color"
	"image/draw"
)

// Clone returns an RGBA copy of img with its origin at (0,0)
func Clone(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// BlendImage composites src onto dst at (x, y) with the given opacity.
// Pixels falling outside dst are clipped.
func BlendImage(dst *image.RGBA, src image.Image, x, y int, opacity float64) {
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}

	sb := src.Bounds()
	r := image.Rect(x, y, x+sb.Dx(), y+sb.Dy())
	mask := image.NewUniform(color.Alpha{A: uint8(opacity * 255)})
	draw.DrawMask(dst, r, src, sb.Min, mask, image.Point{}, draw.Over)
}

// DrawRectangle fills a rectangle with c at the given opacity
func DrawRectangle(dst *image.RGBA, x, y, width, height int, c color.Color, opacity float64) {
	fill := image.NewUniform(c)
	BlendImage(dst, &clipped{fill, image.Rect(0, 0, width, height)}, x, y, opacity)
}

// clipped gives a uniform color finite bounds
type clipped struct {
	*image.Uniform
	r image.Rectangle
}

func (c *clipped) Bounds() image.Rectangle { return c.r }
