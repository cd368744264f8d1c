package clipboard

import "sync"

// fakeBackend is an in-memory clipboard for tests.
type fakeBackend struct {
	mu sync.Mutex

	files  []string
	bitmap []byte
	text   string

	lockedOpens int
	openErr     error
	setErr      error

	opens, closes int
	open          bool
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	if f.lockedOpens > 0 {
		f.lockedOpens--
		return ErrLocked
	}
	f.opens++
	f.open = true
	return nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.open = false
	return nil
}

func (f *fakeBackend) Files() ([]string, error) {
	if f.files == nil {
		return nil, ErrFormatUnavailable
	}
	return f.files, nil
}

func (f *fakeBackend) Bitmap() ([]byte, []byte, error) {
	if f.bitmap == nil {
		return nil, nil, ErrFormatUnavailable
	}
	return f.bitmap, f.bitmap, nil
}

func (f *fakeBackend) clear() {
	f.files, f.bitmap, f.text = nil, nil, ""
}

func (f *fakeBackend) SetText(text string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.clear()
	f.text = text
	return nil
}

func (f *fakeBackend) SetBitmap(b []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.clear()
	f.bitmap = b
	return nil
}

func (f *fakeBackend) SetFiles(paths []string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.clear()
	f.files = paths
	return nil
}
