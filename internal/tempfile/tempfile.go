// Package tempfile hands out uniquely named intermediate files that are
// removed exactly once, whatever path the cycle takes.
package tempfile

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/sloganking/ocr-paste/internal/apperr"
)

// Prefixes used by the media stages; Sweep removes leftovers carrying them.
const (
	PrefixOCR       = "clipboard_ocr_"
	PrefixExtracted = "extracted_audio_"
	PrefixConverted = "converted_audio_"
)

var knownPrefixes = []string{PrefixOCR, PrefixExtracted, PrefixConverted}

// Manager creates artifacts inside one directory.
type Manager struct {
	fs  afero.Fs
	dir string
	log *slog.Logger
}

// New returns a Manager rooted at dir on the OS filesystem.
func New(dir string) *Manager {
	return NewWithFs(afero.NewOsFs(), dir)
}

// NewWithFs returns a Manager on an arbitrary afero filesystem.
func NewWithFs(fsys afero.Fs, dir string) *Manager {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Manager{fs: fsys, dir: dir, log: slog.With("component", "tempfile")}
}

// Dir is the directory artifacts are created in.
func (m *Manager) Dir() string { return m.dir }

// Fs is the filesystem artifacts live on.
func (m *Manager) Fs() afero.Fs { return m.fs }

// Acquire creates an empty file named prefix+uuid+suffix. The caller, or an
// external tool, writes through Path; Release removes it.
func (m *Manager) Acquire(prefix, suffix string) (*Artifact, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	path := filepath.Join(m.dir, prefix+id+suffix)
	f, err := m.fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, apperr.Wrap(apperr.TempResourceCreateFailed, err, "create temp file").
			WithDetail("path", path)
	}
	if err := f.Close(); err != nil {
		_ = m.fs.Remove(path)
		return nil, apperr.Wrap(apperr.TempResourceCreateFailed, err, "close temp file").
			WithDetail("path", path)
	}
	return &Artifact{path: path, fs: m.fs, log: m.log}, nil
}

// Sweep removes artifacts left behind by a previous process and returns
// how many were deleted.
func (m *Manager) Sweep() int {
	entries, err := afero.ReadDir(m.fs, m.dir)
	if err != nil {
		m.log.Warn("read temp dir failed", "dir", m.dir, "err", err)
		return 0
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !hasKnownPrefix(e.Name()) {
			continue
		}
		path := filepath.Join(m.dir, e.Name())
		if err := m.fs.Remove(path); err != nil {
			m.log.Warn("remove stale artifact failed", "path", path, "err", err)
			continue
		}
		m.log.Debug("removed stale artifact", "path", path)
		removed++
	}
	return removed
}

func hasKnownPrefix(name string) bool {
	for _, p := range knownPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Artifact is one temporary file.
type Artifact struct {
	path string
	fs   afero.Fs
	log  *slog.Logger
	once sync.Once
}

// Path is the absolute location of the file.
func (a *Artifact) Path() string { return a.path }

// Release deletes the file. It is safe to call more than once and on a nil
// Artifact. A file that no longer exists is fine; other failures are logged.
func (a *Artifact) Release() {
	if a == nil {
		return
	}
	a.once.Do(func() {
		err := a.fs.Remove(a.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.log.Warn("delete temp file failed", "path", a.path, "err", err)
		}
	})
}
