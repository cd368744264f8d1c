//go:build windows

package clipboard

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"
)

const (
	cfUnicodeText = 13
	cfDIB         = 8
	cfHDROP       = 15

	gmemMoveable = 0x0002
)

var (
	user32                         = syscall.NewLazyDLL("user32.dll")
	kernel32                       = syscall.NewLazyDLL("kernel32.dll")
	procOpenClipboard              = user32.NewProc("OpenClipboard")
	procCloseClipboard             = user32.NewProc("CloseClipboard")
	procEmptyClipboard             = user32.NewProc("EmptyClipboard")
	procIsClipboardFormatAvailable = user32.NewProc("IsClipboardFormatAvailable")
	procGetClipboardData           = user32.NewProc("GetClipboardData")
	procSetClipboardData           = user32.NewProc("SetClipboardData")
	procGlobalAlloc                = kernel32.NewProc("GlobalAlloc")
	procGlobalFree                 = kernel32.NewProc("GlobalFree")
	procGlobalLock                 = kernel32.NewProc("GlobalLock")
	procGlobalUnlock               = kernel32.NewProc("GlobalUnlock")
	procGlobalSize                 = kernel32.NewProc("GlobalSize")
)

// winBackend talks to user32 directly. Bitmaps travel as CF_DIB; the raw
// DIB is kept for restore and a BMP file is exposed for decoding.
type winBackend struct{}

// NewSystem returns the clipboard backend for this platform.
func NewSystem() Backend { return winBackend{} }

func (winBackend) Name() string { return "win32" }

// Open pins the goroutine to its OS thread until Close: the clipboard is
// owned by the thread that opened it.
func (winBackend) Open() error {
	runtime.LockOSThread()
	r, _, err := procOpenClipboard.Call(0)
	if r == 0 {
		runtime.UnlockOSThread()
		return fmt.Errorf("%w: OpenClipboard: %v", ErrLocked, err)
	}
	return nil
}

func (winBackend) Close() error {
	defer runtime.UnlockOSThread()
	r, _, err := procCloseClipboard.Call()
	if r == 0 {
		return fmt.Errorf("CloseClipboard: %v", err)
	}
	return nil
}

func (winBackend) Files() ([]string, error) {
	b, err := readGlobal(cfHDROP)
	if err != nil {
		return nil, err
	}
	return decodeDropFiles(b)
}

func (winBackend) Bitmap() ([]byte, []byte, error) {
	dib, err := readGlobal(cfDIB)
	if err != nil {
		return nil, nil, err
	}
	bmp, err := dibToBMP(dib)
	if err != nil {
		return nil, nil, err
	}
	return bmp, dib, nil
}

func (winBackend) SetText(text string) error {
	chars, err := syscall.UTF16FromString(text)
	if err != nil {
		return err
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&chars[0])), len(chars)*2)
	return writeGlobal(cfUnicodeText, b)
}

func (winBackend) SetBitmap(b []byte) error {
	dib := b
	if len(b) > 1 && b[0] == 'B' && b[1] == 'M' {
		var err error
		if dib, err = bmpToDIB(b); err != nil {
			return err
		}
	}
	return writeGlobal(cfDIB, dib)
}

func (winBackend) SetFiles(paths []string) error {
	return writeGlobal(cfHDROP, encodeDropFiles(paths))
}

func readGlobal(format uintptr) ([]byte, error) {
	if r, _, _ := procIsClipboardFormatAvailable.Call(format); r == 0 {
		return nil, ErrFormatUnavailable
	}
	h, _, err := procGetClipboardData.Call(format)
	if h == 0 {
		return nil, fmt.Errorf("GetClipboardData(%d): %v", format, err)
	}
	size, _, _ := procGlobalSize.Call(h)
	p, _, err := procGlobalLock.Call(h)
	if p == 0 {
		return nil, fmt.Errorf("GlobalLock: %v", err)
	}
	defer procGlobalUnlock.Call(h)

	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(p)), size))
	return out, nil
}

func writeGlobal(format uintptr, data []byte) error {
	if r, _, err := procEmptyClipboard.Call(); r == 0 {
		return fmt.Errorf("EmptyClipboard: %v", err)
	}
	h, _, err := procGlobalAlloc.Call(gmemMoveable, uintptr(len(data)))
	if h == 0 {
		return fmt.Errorf("GlobalAlloc: %v", err)
	}
	p, _, err := procGlobalLock.Call(h)
	if p == 0 {
		procGlobalFree.Call(h)
		return fmt.Errorf("GlobalLock: %v", err)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(p)), len(data)), data)
	procGlobalUnlock.Call(h)

	// On success the system owns h.
	if r, _, err := procSetClipboardData.Call(format, h); r == 0 {
		procGlobalFree.Call(h)
		return fmt.Errorf("SetClipboardData(%d): %v", format, err)
	}
	return nil
}
