package recorder

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Report summarizes one capture run
type Report struct {
	RunID      string
	SessionDir string
	Device     string
	Duration   time.Duration
	Frames     int // regular files found in the session directory afterwards
	Written    int
	Skipped    int
	Bytes      int64
	Rate       float64
	RateKnown  bool
}

// RateString formats the throughput, "n/a" when the run was shorter than a second
func (r *Report) RateString() string {
	if !r.RateKnown {
		return "n/a"
	}
	return fmt.Sprintf("%.2f frames/s", r.Rate)
}

func (r *Report) String() string {
	return fmt.Sprintf("%s frames (%s) in %s to %s, %s skipped, %s",
		humanize.Comma(int64(r.Frames)),
		humanize.Bytes(uint64(r.Bytes)),
		r.Duration.Round(time.Millisecond),
		r.SessionDir,
		humanize.Comma(int64(r.Skipped)),
		r.RateString(),
	)
}
