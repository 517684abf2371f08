package session

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/bryanchriswhite/framegrab/internal/logger"
)

// CountRegularFiles counts the regular files directly inside dir. Entries are
// stat'ed individually (symlinks are followed); subdirectories and other
// non-regular entries are skipped. An entry that cannot be stat'ed is logged
// with its name and skipped. Only failing to list dir itself is an error.
func (m *Manager) CountRegularFiles(dir string) (int, error) {
	log := logger.WithComponent("session")

	f, err := m.fs.Open(dir)
	if err != nil {
		return 0, &PathError{Op: "open directory", Path: dir, Kind: KindIO, Err: err}
	}
	defer f.Close()

	names, err := f.Readdirnames(-1)
	if err != nil {
		return 0, &PathError{Op: "list directory", Path: dir, Kind: KindIO, Err: err}
	}
	sort.Strings(names)

	count := 0
	for _, name := range names {
		info, err := m.fs.Stat(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("entry", name).Msg("Skipping entry that cannot be stat'ed")
			continue
		}
		if info.Mode().IsRegular() {
			count++
		}
	}
	return count, nil
}

// Throughput returns count divided by elapsed whole seconds. The second
// result is false when fewer than one second elapsed and no rate exists.
func Throughput(count int, elapsed time.Duration) (float64, bool) {
	secs := int64(elapsed / time.Second)
	if secs <= 0 {
		return 0, false
	}
	return float64(count) / float64(secs), true
}
