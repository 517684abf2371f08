// Package keyboard reads single key presses from stdin without blocking the
// capture loop.
package keyboard

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/bryanchriswhite/framegrab/internal/logger"
	"github.com/mattn/go-isatty"
)

// Poller delivers runes read from an input in the background
type Poller struct {
	keys    chan rune
	restore func() error
	once    sync.Once
}

// NewPoller starts reading from f. When f is a terminal it is switched to
// non-canonical, no-echo mode so keys arrive without Enter; Close restores it.
func NewPoller(f *os.File) *Poller {
	log := logger.WithComponent("keyboard")

	restore := func() error { return nil }
	if isatty.IsTerminal(f.Fd()) {
		r, err := makeRaw(int(f.Fd()))
		if err != nil {
			log.Warn().Err(err).Msg("Could not switch terminal to raw mode, keys need Enter")
		} else {
			restore = r
		}
	} else {
		log.Debug().Msg("stdin is not a terminal, reading line-buffered input")
	}

	p := NewReaderPoller(f)
	p.restore = restore
	return p
}

// NewReaderPoller reads runes from r without touching terminal state
func NewReaderPoller(r io.Reader) *Poller {
	p := &Poller{
		keys:    make(chan rune, 16),
		restore: func() error { return nil },
	}
	go p.read(r)
	return p
}

func (p *Poller) read(r io.Reader) {
	br := bufio.NewReader(r)
	for {
		c, _, err := br.ReadRune()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				logger.WithComponent("keyboard").Debug().Err(err).Msg("Stopped reading keys")
			}
			return
		}
		select {
		case p.keys <- c:
		default:
			// Nobody is polling fast enough; older keys win
		}
	}
}

// Poll returns the next pending key, or false if none is waiting
func (p *Poller) Poll() (rune, bool) {
	select {
	case c := <-p.keys:
		return c, true
	default:
		return 0, false
	}
}

// Close restores the terminal. The reader goroutine exits with the input.
func (p *Poller) Close() error {
	var err error
	p.once.Do(func() {
		err = p.restore()
	})
	return err
}
