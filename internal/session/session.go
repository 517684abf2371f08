// Package session owns the on-disk layout of a capture run: the dated session
// directory under the base path, the run_info manifest that points at it, and
// the timestamped file name of every frame written into it.
//
//	<base>/run_info                          one line: <base>/20240102T030405
//	<base>/20240102T030405/                  session directory
//	<base>/20240102T030405/20240102T030405.123456.png
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bryanchriswhite/framegrab/internal/logger"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	// ManifestName is the file in the base path that records the latest session directory
	ManifestName = "run_info"

	// FrameExt is appended to every frame file name
	FrameExt = ".png"

	sessionLayout = "20060102T150405"
	frameLayout   = "20060102T150405.000000"

	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Clock returns the current wall-clock time
type Clock func() time.Time

// Session describes one capture run
type Session struct {
	RunID        string
	BaseDir      string
	Dir          string
	ManifestPath string
	StartedAt    time.Time
}

// Manager creates session directories and frame paths on a filesystem.
// It never terminates the process: every failure is logged and returned,
// and the caller decides whether it is fatal.
type Manager struct {
	fs  afero.Fs
	now Clock
}

// NewManager creates a manager. A nil fs means the OS filesystem and a nil
// clock means time.Now.
func NewManager(fs afero.Fs, now Clock) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{fs: fs, now: now}
}

// FormatSessionTimestamp formats t as a sortable directory name, e.g. 20240102T030405
func FormatSessionTimestamp(t time.Time) string {
	return t.Format(sessionLayout)
}

// FormatFrameTimestamp formats t with microsecond resolution, e.g. 20240102T030405.000123
func FormatFrameTimestamp(t time.Time) string {
	return t.Format(frameLayout)
}

// EnsureDirectory makes sure path exists as a directory. Only the last path
// element is created; missing ancestors are an I/O error. A non-directory at
// path is reported as a KindConfig error and left untouched. The path is
// returned in every case.
func (m *Manager) EnsureDirectory(path string) (string, error) {
	log := logger.WithComponent("session")

	info, err := m.fs.Stat(path)
	switch {
	case err == nil && info.IsDir():
		log.Info().Str("path", path).Msg("Directory exists")
		return path, nil

	case err == nil:
		log.Error().Str("path", path).Msg("Path exists, but is not a directory")
		return path, &PathError{Op: "ensure directory", Path: path, Kind: KindConfig, Err: ErrNotDirectory}

	case !errors.Is(err, os.ErrNotExist):
		log.Error().Err(err).Str("path", path).Msg("Unable to inspect directory")
		return path, &PathError{Op: "ensure directory", Path: path, Kind: KindIO, Err: err}
	}

	if err := m.fs.Mkdir(path, dirPerm); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Unable to create directory")
		return path, &PathError{Op: "create directory", Path: path, Kind: KindIO, Err: err}
	}

	log.Info().Str("path", path).Msg("Created directory")
	return path, nil
}

// StartSession ensures base, creates a session directory named after the
// current time and records its path in base/run_info, replacing any previous
// content.
//
// When the session directory cannot be ensured the computed session is
// returned with the base and directory errors joined, and the manifest is
// left as it was. A base error alone does not fail the session. A
// manifest write failure is returned as a PathError wrapping ErrManifest.
func (m *Manager) StartSession(base string) (*Session, error) {
	log := logger.WithComponent("session")

	// A base error is already logged by EnsureDirectory. It is returned only
	// when the session directory cannot be created either; a usable session
	// directory means the run can go ahead.
	_, baseErr := m.EnsureDirectory(base)

	started := m.now()
	s := &Session{
		RunID:        uuid.NewString(),
		BaseDir:      base,
		Dir:          filepath.Join(base, FormatSessionTimestamp(started)),
		ManifestPath: filepath.Join(base, ManifestName),
		StartedAt:    started,
	}

	if _, err := m.EnsureDirectory(s.Dir); err != nil {
		return s, errors.Join(baseErr, err)
	}

	if err := afero.WriteFile(m.fs, s.ManifestPath, []byte(s.Dir+"\n"), filePerm); err != nil {
		log.Error().Err(err).Str("path", s.ManifestPath).Msg("Unable to write run manifest")
		return s, &PathError{
			Op:   "write manifest",
			Path: s.ManifestPath,
			Kind: KindIO,
			Err:  fmt.Errorf("%w: %w", ErrManifest, err),
		}
	}

	log.Info().
		Str("run_id", s.RunID).
		Str("session_dir", s.Dir).
		Str("manifest", s.ManifestPath).
		Msg("Session started")

	return s, nil
}

// NextFramePath returns dir/<now>.png. It does not touch the filesystem and
// does not deduplicate: two calls within one clock tick return the same path.
func (m *Manager) NextFramePath(dir string) string {
	return filepath.Join(dir, FormatFrameTimestamp(m.now())+FrameExt)
}

// ReadManifest returns the session directory recorded in base/run_info
func (m *Manager) ReadManifest(base string) (string, error) {
	path := filepath.Join(base, ManifestName)

	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return "", &PathError{Op: "read manifest", Path: path, Kind: KindIO, Err: err}
	}

	line := strings.TrimRight(string(data), "\r\n")
	if line == "" || strings.ContainsAny(line, "\r\n") {
		return "", &PathError{
			Op:   "read manifest",
			Path: path,
			Kind: KindConfig,
			Err:  errors.New("manifest must contain exactly one line"),
		}
	}
	return line, nil
}
