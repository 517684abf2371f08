package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// Decode converts a raw frame into a pixel buffer that image encoders accept
func Decode(f *Frame) (image.Image, error) {
	if f == nil {
		return nil, fmt.Errorf("decode: nil frame")
	}

	switch f.Format {
	case FormatRGBA:
		return decodeRGBA(f)
	case FormatYUYV:
		return decodeYUYV(f)
	case FormatMJPEG:
		img, err := jpeg.Decode(bytes.NewReader(f.Data))
		if err != nil {
			return nil, fmt.Errorf("decode MJPEG frame: %w", err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("decode %v: %w", f.Format, ErrUnsupportedFormat)
	}
}

func decodeRGBA(f *Frame) (*image.RGBA, error) {
	want := f.Width * f.Height * 4
	if f.Width <= 0 || f.Height <= 0 || len(f.Data) < want {
		return nil, fmt.Errorf("RGBA frame %dx%d needs %d bytes, got %d", f.Width, f.Height, want, len(f.Data))
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	copy(img.Pix, f.Data[:want])
	return img, nil
}

// decodeYUYV unpacks Y0 U Y1 V macropixels into a 4:2:2 YCbCr image
func decodeYUYV(f *Frame) (*image.YCbCr, error) {
	want := f.Width * f.Height * 2
	if f.Width <= 0 || f.Height <= 0 || f.Width%2 != 0 || len(f.Data) < want {
		return nil, fmt.Errorf("YUYV frame %dx%d needs even width and %d bytes, got %d", f.Width, f.Height, want, len(f.Data))
	}

	img := image.NewYCbCr(image.Rect(0, 0, f.Width, f.Height), image.YCbCrSubsampleRatio422)
	for y := 0; y < f.Height; y++ {
		row := f.Data[y*f.Width*2 : (y+1)*f.Width*2]
		yOff := y * img.YStride
		cOff := y * img.CStride
		for x := 0; x < f.Width; x += 2 {
			i := x * 2
			img.Y[yOff+x] = row[i]
			img.Cb[cOff+x/2] = row[i+1]
			img.Y[yOff+x+1] = row[i+2]
			img.Cr[cOff+x/2] = row[i+3]
		}
	}
	return img, nil
}
