package output

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/framegrab/internal/logger"
	"golang.org/x/image/draw"
)

// maxRequestBytes is the core protocol request size limit without BIG-REQUESTS
const maxRequestBytes = 65535 * 4

// X11Window shows preview frames in a plain X11 window, letterboxed to
// the window size
type X11Window struct {
	title  string
	width  int
	height int

	mu      sync.Mutex
	conn    *xgb.Conn
	screen  *xproto.ScreenInfo
	window  xproto.Window
	gc      xproto.Gcontext
	bpp     int
	pad     int
	running bool
}

// NewX11Window creates a preview window of the given size
func NewX11Window(title string, width, height int) *X11Window {
	return &X11Window{title: title, width: width, height: height}
}

// Start connects to $DISPLAY, then creates and maps the window
func (w *X11Window) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("preview window already open")
	}
	log := logger.WithComponent("x11-window")

	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}
	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	bpp, pad := 0, 0
	for _, f := range setup.PixmapFormats {
		if f.Depth == screen.RootDepth {
			bpp, pad = int(f.BitsPerPixel)/8, int(f.ScanlinePad)/8
			break
		}
	}
	if bpp != 3 && bpp != 4 {
		conn.Close()
		return fmt.Errorf("unsupported X11 pixmap format for depth %d", screen.RootDepth)
	}

	win, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create window ID: %w", err)
	}
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		win,
		screen.Root,
		0, 0,
		uint16(w.width), uint16(w.height),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{0x000000, xproto.EventMaskExposure | xproto.EventMaskStructureNotify},
	).Check()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create window: %w", err)
	}

	w.conn, w.screen, w.window, w.bpp, w.pad = conn, screen, win, bpp, pad

	if err := w.setTitle(w.title); err != nil {
		log.Warn().Err(err).Msg("Failed to set window title")
	}
	if err := xproto.MapWindowChecked(conn, win).Check(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to map window: %w", err)
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create graphics context ID: %w", err)
	}
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(win), 0, nil).Check(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create graphics context: %w", err)
	}
	w.gc = gc
	conn.Sync()

	w.running = true
	log.Info().
		Int("width", w.width).
		Int("height", w.height).
		Uint32("window_id", uint32(win)).
		Msg("Preview window opened")
	return nil
}

// Stop destroys the window and closes the connection
func (w *X11Window) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	xproto.FreeGC(w.conn, w.gc)
	xproto.DestroyWindow(w.conn, w.window)
	w.conn.Sync()
	w.conn.Close()
	w.running = false

	logger.WithComponent("x11-window").Info().Msg("Preview window closed")
	return nil
}

// WriteFrame letterboxes frame into the window and uploads it in row strips
func (w *X11Window) WriteFrame(frame image.Image) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return fmt.Errorf("preview window not open")
	}

	canvas := Letterbox(frame, w.width, w.height)
	data, stride := packZPixmap(canvas, w.bpp, w.pad, w.screen.RootDepth == 32)

	rows := rowsPerRequest(stride, w.height)
	for y := 0; y < w.height; y += rows {
		n := min(rows, w.height-y)
		err := xproto.PutImageChecked(
			w.conn,
			xproto.ImageFormatZPixmap,
			xproto.Drawable(w.window),
			w.gc,
			uint16(w.width), uint16(n),
			0, int16(y),
			0,
			w.screen.RootDepth,
			data[y*stride:(y+n)*stride],
		).Check()
		if err != nil {
			return fmt.Errorf("failed to put image: %w", err)
		}
	}
	return nil
}

// Name returns the output type name
func (w *X11Window) Name() string {
	return "X11 preview window"
}

// IsRunning returns true while the window is open
func (w *X11Window) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *X11Window) setTitle(title string) error {
	nameAtom, err := internAtom(w.conn, "_NET_WM_NAME")
	if err != nil {
		return err
	}
	utf8Atom, err := internAtom(w.conn, "UTF8_STRING")
	if err != nil {
		return err
	}
	return xproto.ChangePropertyChecked(
		w.conn,
		xproto.PropModeReplace,
		w.window,
		nameAtom,
		utf8Atom,
		8,
		uint32(len(title)),
		[]byte(title),
	).Check()
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}

// Letterbox scales src to fit width x height keeping its aspect ratio and
// centers it on a black canvas
func Letterbox(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	sb := src.Bounds()
	if sb.Empty() {
		return dst
	}
	dw, dh := width, sb.Dy()*width/sb.Dx()
	if dh > height {
		dw, dh = sb.Dx()*height/sb.Dy(), height
	}
	x0, y0 := (width-dw)/2, (height-dh)/2
	draw.ApproxBiLinear.Scale(dst, image.Rect(x0, y0, x0+dw, y0+dh), src, sb, draw.Src, nil)
	return dst
}

// packZPixmap converts RGBA to the server's BGR(x) ZPixmap layout with each
// scanline padded to pad bytes. It returns the data and the stride.
func packZPixmap(img *image.RGBA, bpp, pad int, keepAlpha bool) ([]byte, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	stride := w * bpp
	if pad > 0 {
		stride = (stride + pad - 1) / pad * pad
	}

	data := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride:]
		dst := data[y*stride:]
		for x := 0; x < w; x++ {
			s, d := x*4, x*bpp
			dst[d] = src[s+2]
			dst[d+1] = src[s+1]
			dst[d+2] = src[s]
			if bpp == 4 && keepAlpha {
				dst[d+3] = src[s+3]
			}
		}
	}
	return data, stride
}

// rowsPerRequest returns how many scanlines fit in one PutImage request
func rowsPerRequest(stride, height int) int {
	const header = 24
	rows := (maxRequestBytes - header) / stride
	if rows < 1 {
		rows = 1
	}
	if rows > height {
		rows = height
	}
	return rows
}
