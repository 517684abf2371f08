package output

import (
	"errors"
	"image"
	"strings"
)

// Multi fans frames out to several outputs. Start keeps the outputs that
// started and fails only when none did.
type Multi struct {
	outputs []Output
	active  []Output
}

// NewMulti combines outputs into one
func NewMulti(outputs ...Output) *Multi {
	return &Multi{outputs: outputs}
}

// Start starts every output
func (m *Multi) Start() error {
	var errs []error
	m.active = m.active[:0]
	for _, o := range m.outputs {
		if err := o.Start(); err != nil {
			errs = append(errs, err)
			continue
		}
		m.active = append(m.active, o)
	}
	if len(m.active) == 0 && len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Stop stops the started outputs
func (m *Multi) Stop() error {
	var errs []error
	for _, o := range m.active {
		if err := o.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	m.active = nil
	return errors.Join(errs...)
}

// WriteFrame writes to every started output, returning all errors joined
func (m *Multi) WriteFrame(frame image.Image) error {
	var errs []error
	for _, o := range m.active {
		if err := o.WriteFrame(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Name lists the combined output names
func (m *Multi) Name() string {
	names := make([]string, 0, len(m.outputs))
	for _, o := range m.outputs {
		names = append(names, o.Name())
	}
	return strings.Join(names, " + ")
}

// IsRunning reports whether any output is running
func (m *Multi) IsRunning() bool {
	for _, o := range m.active {
		if o.IsRunning() {
			return true
		}
	}
	return false
}
