//go:build !windows

package clipboard

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	atotto "github.com/atotto/clipboard"
	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// NewSystem returns the clipboard backend for this platform: the native
// library when it initialises (it needs cgo and a display), otherwise a
// text-only fallback through the system clipboard utilities.
func NewSystem() Backend {
	initOnce.Do(func() { initErr = clipboard.Init() })
	if initErr != nil {
		slog.Warn("native clipboard unavailable; images disabled", "component", "clipboard", "err", initErr)
		return textBackend{}
	}
	return nativeBackend{}
}

// nativeBackend uses golang.design/x/clipboard. Images are PNG; file
// references arrive as a file:// URI list in the text slot.
type nativeBackend struct{}

func (nativeBackend) Name() string { return "native" }
func (nativeBackend) Open() error  { return nil }
func (nativeBackend) Close() error { return nil }

func (nativeBackend) Files() ([]string, error) {
	paths, ok := parseURIList(string(clipboard.Read(clipboard.FmtText)))
	if !ok {
		return nil, ErrFormatUnavailable
	}
	return paths, nil
}

func (nativeBackend) Bitmap() ([]byte, []byte, error) {
	b := clipboard.Read(clipboard.FmtImage)
	if len(b) == 0 {
		return nil, nil, ErrFormatUnavailable
	}
	return b, b, nil
}

func (nativeBackend) SetText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (nativeBackend) SetBitmap(b []byte) error {
	clipboard.Write(clipboard.FmtImage, b)
	return nil
}

func (nativeBackend) SetFiles(paths []string) error {
	clipboard.Write(clipboard.FmtText, []byte(formatURIList(paths)))
	return nil
}

// textBackend shells out to xclip/xsel/wl-copy/pbcopy via atotto.
type textBackend struct{}

func (textBackend) Name() string { return "text" }

func (textBackend) Open() error {
	if atotto.Unsupported {
		return errors.New("no clipboard utility found")
	}
	return nil
}

func (textBackend) Close() error { return nil }

func (textBackend) Files() ([]string, error) {
	text, err := atotto.ReadAll()
	if err != nil {
		return nil, err
	}
	paths, ok := parseURIList(text)
	if !ok {
		return nil, ErrFormatUnavailable
	}
	return paths, nil
}

func (textBackend) Bitmap() ([]byte, []byte, error) { return nil, nil, ErrFormatUnavailable }

func (textBackend) SetText(text string) error { return atotto.WriteAll(text) }

func (textBackend) SetBitmap([]byte) error {
	return fmt.Errorf("text clipboard cannot hold images")
}

func (textBackend) SetFiles(paths []string) error {
	return atotto.WriteAll(formatURIList(paths))
}
