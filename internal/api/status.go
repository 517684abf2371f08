package api

import (
	"sync"
	"time"
)

// Status is the JSON body of /api/status
type Status struct {
	RunID      string    `json:"run_id"`
	SessionDir string    `json:"session_dir"`
	Device     string    `json:"device"`
	StartedAt  time.Time `json:"started_at"`
	Written    int       `json:"frames_written"`
	Skipped    int       `json:"frames_skipped"`
	Bytes      int64     `json:"bytes_written"`
	LastFrame  string    `json:"last_frame,omitempty"`
	Capturing  bool      `json:"capturing"`
}

// FrameEvent is pushed to /api/events subscribers for each saved frame
type FrameEvent struct {
	Seq       int       `json:"seq"`
	Path      string    `json:"path"`
	Bytes     int64     `json:"bytes"`
	Timestamp time.Time `json:"timestamp"`
}

// Tracker records capture progress for the preview server and fans frame
// events out to subscribers. Publishing never blocks on a slow subscriber.
type Tracker struct {
	mu     sync.RWMutex
	status Status

	subMu sync.Mutex
	subs  map[chan FrameEvent]struct{}
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{subs: make(map[chan FrameEvent]struct{})}
}

// SessionStarted records the session and device being captured
func (t *Tracker) SessionStarted(runID, dir, device string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = Status{
		RunID:      runID,
		SessionDir: dir,
		Device:     device,
		StartedAt:  at,
		Capturing:  true,
	}
}

// FrameWritten counts a saved frame and notifies subscribers
func (t *Tracker) FrameWritten(path string, bytes int64, at time.Time) {
	t.mu.Lock()
	t.status.Written++
	t.status.Bytes += bytes
	t.status.LastFrame = path
	ev := FrameEvent{Seq: t.status.Written, Path: path, Bytes: bytes, Timestamp: at}
	t.mu.Unlock()

	t.subMu.Lock()
	for ch := range t.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	t.subMu.Unlock()
}

// FrameSkipped counts a frame lost to a capture, decode or write error
func (t *Tracker) FrameSkipped() {
	t.mu.Lock()
	t.status.Skipped++
	t.mu.Unlock()
}

// SessionEnded marks capture as finished and closes all subscriptions
func (t *Tracker) SessionEnded() {
	t.mu.Lock()
	t.status.Capturing = false
	t.mu.Unlock()

	t.subMu.Lock()
	for ch := range t.subs {
		close(ch)
	}
	t.subs = make(map[chan FrameEvent]struct{})
	t.subMu.Unlock()
}

// Status returns a snapshot of the current progress
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Subscribe returns a channel receiving frame events until Unsubscribe or SessionEnded
func (t *Tracker) Subscribe() chan FrameEvent {
	ch := make(chan FrameEvent, 16)
	t.subMu.Lock()
	t.subs[ch] = struct{}{}
	t.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription
func (t *Tracker) Unsubscribe(ch chan FrameEvent) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	if _, ok := t.subs[ch]; ok {
		delete(t.subs, ch)
		close(ch)
	}
}
