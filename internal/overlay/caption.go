package overlay

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Caption draws a single line of text in the bottom-left corner of a
// preview frame. It always renders onto a copy; the input is not modified.
type Caption struct {
	textColor color.RGBA
	bgColor   color.RGBA
	opacity   float64
	padding   int
}

// NewCaption creates a white-on-translucent-black caption
func NewCaption() *Caption {
	return &Caption{
		textColor: color.RGBA{255, 255, 255, 255},
		bgColor:   color.RGBA{0, 0, 0, 255},
		opacity:   0.6,
		padding:   4,
	}
}

// Render returns a copy of img with text drawn on it
func (c *Caption) Render(img image.Image, text string) *image.RGBA {
	out := Clone(img)
	if text == "" {
		return out
	}

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(c.textColor),
		Face: face,
	}

	textWidth := d.MeasureString(text).Ceil()
	lineHeight := face.Metrics().Height.Ceil()

	boxW := textWidth + c.padding*2
	boxH := lineHeight + c.padding*2
	x := 0
	y := out.Bounds().Dy() - boxH
	if y < 0 {
		y = 0
	}

	DrawRectangle(out, x, y, boxW, boxH, c.bgColor, c.opacity)

	d.Dot = fixed.Point26_6{
		X: fixed.I(x + c.padding),
		Y: fixed.I(y+c.padding) + face.Metrics().Ascent,
	}
	d.DrawString(text)
	return out
}
