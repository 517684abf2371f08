package output

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/spf13/afero"
)

// PNGWriter stores frames as uncompressed PNG files
type PNGWriter struct {
	fs      afero.Fs
	encoder png.Encoder
}

// NewPNGWriter creates a writer using png.NoCompression. A nil fs writes to
// the OS filesystem.
func NewPNGWriter(fs afero.Fs) *PNGWriter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &PNGWriter{
		fs:      fs,
		encoder: png.Encoder{CompressionLevel: png.NoCompression},
	}
}

// WriteFrame encodes img to path and returns the number of bytes written.
// A partially written file is removed.
func (p *PNGWriter) WriteFrame(path string, img image.Image) (int64, error) {
	f, err := p.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create frame file: %w", err)
	}

	cw := &countingWriter{w: f}
	if err := p.encoder.Encode(cw, img); err != nil {
		f.Close()
		p.fs.Remove(path)
		return 0, fmt.Errorf("encode PNG %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		p.fs.Remove(path)
		return 0, fmt.Errorf("close frame file %s: %w", path, err)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
