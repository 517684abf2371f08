package session

import (
	"errors"
	"fmt"
)

// Kind classifies a failure reported by the Manager
type Kind int

const (
	// KindIO is a filesystem failure: create, write, open or stat.
	KindIO Kind = iota + 1
	// KindConfig means the path exists but cannot serve its role,
	// e.g. a regular file where a directory is required.
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

var (
	// ErrNotDirectory is wrapped by a KindConfig PathError
	ErrNotDirectory = errors.New("exists, but is not a directory")

	// ErrManifest is wrapped when the run_info manifest could not be written.
	// Downstream tooling relies on the manifest, so callers treat it as fatal.
	ErrManifest = errors.New("manifest not written")
)

// PathError records the operation, path and kind of a failed session operation
type PathError struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first PathError in err's chain, or 0
func KindOf(err error) Kind {
	var pe *PathError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// IsConfig reports whether err carries a KindConfig PathError
func IsConfig(err error) bool {
	return KindOf(err) == KindConfig
}
