package clipboard

import "errors"

var (
	// ErrFormatUnavailable means the requested format is not on the clipboard.
	ErrFormatUnavailable = errors.New("clipboard format unavailable")
	// ErrLocked means another process holds the clipboard; Open may be retried.
	ErrLocked = errors.New("clipboard locked by another process")
)

// Backend is the OS clipboard. Reads and writes happen between Open and
// Close; every Set call replaces the whole clipboard content.
//
// Bitmap returns a decodable image plus the raw bytes in the backend's own
// format; SetBitmap accepts either.
type Backend interface {
	Name() string
	Open() error
	Close() error

	Files() ([]string, error)
	Bitmap() (img, native []byte, err error)

	SetText(text string) error
	SetBitmap(b []byte) error
	SetFiles(paths []string) error
}
