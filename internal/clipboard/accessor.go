// Package clipboard captures, replaces and restores the system clipboard.
// Each public operation is one short open/close section; the clipboard is
// never held while content is being processed.
package clipboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/sloganking/ocr-paste/internal/apperr"
)

// DefaultAttempts is how many times a busy clipboard is opened before giving up.
const DefaultAttempts = 10

// Accessor serialises clipboard access for one cycle at a time.
type Accessor struct {
	backend  Backend
	attempts int
	// Interval is the first retry delay; later delays grow exponentially.
	Interval time.Duration
	log      *slog.Logger
}

// NewAccessor wraps b. attempts below 1 fall back to DefaultAttempts.
func NewAccessor(b Backend, attempts int) *Accessor {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	return &Accessor{
		backend:  b,
		attempts: attempts,
		Interval: 10 * time.Millisecond,
		log:      slog.With("component", "clipboard", "backend", b.Name()),
	}
}

func (a *Accessor) open(ctx context.Context) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = a.Interval
	exp.MaxInterval = 250 * time.Millisecond
	exp.RandomizationFactor = 0

	try := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		try++
		err := a.backend.Open()
		if err != nil && !errors.Is(err, ErrLocked) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(exp), backoff.WithMaxTries(uint(a.attempts)))
	if err != nil {
		return err
	}
	if try > 1 {
		a.log.Debug("clipboard opened after retry", "attempts", try)
	}
	return nil
}

func (a *Accessor) close() {
	if err := a.backend.Close(); err != nil {
		a.log.Warn("close clipboard failed", "err", err)
	}
}

// Capture reads file references, or failing that a bitmap.
func (a *Accessor) Capture(ctx context.Context) (Payload, error) {
	if err := a.open(ctx); err != nil {
		return Payload{}, apperr.Wrap(apperr.ClipboardUnavailable, err, "open clipboard").
			WithDetail("attempts", a.attempts)
	}
	defer a.close()

	files, err := a.backend.Files()
	switch {
	case err == nil:
		return FilesPayload(files), nil
	case !errors.Is(err, ErrFormatUnavailable):
		a.log.Warn("reading file list failed", "err", err)
	}

	img, native, err := a.backend.Bitmap()
	switch {
	case err == nil && len(img) > 0:
		return BitmapPayload(img, native), nil
	case err != nil && !errors.Is(err, ErrFormatUnavailable):
		a.log.Warn("reading bitmap failed", "err", err)
	}

	return Payload{}, apperr.New(apperr.NoSupportedFormat, "clipboard holds neither files nor an image")
}

// WriteText replaces the clipboard with text.
func (a *Accessor) WriteText(ctx context.Context, text string) error {
	if err := a.open(ctx); err != nil {
		return apperr.Wrap(apperr.ClipboardWriteFailed, err, "open clipboard")
	}
	defer a.close()
	if err := a.backend.SetText(text); err != nil {
		return apperr.Wrap(apperr.ClipboardWriteFailed, err, "set text").
			WithDetail("chars", len([]rune(text)))
	}
	return nil
}

// Restore writes a captured payload back.
func (a *Accessor) Restore(ctx context.Context, p Payload) error {
	if err := a.open(ctx); err != nil {
		return apperr.Wrap(apperr.ClipboardRestoreFailed, err, "open clipboard")
	}
	defer a.close()

	var err error
	switch p.Kind {
	case KindImage:
		b := p.Native
		if b == nil {
			b = p.Image
		}
		err = a.backend.SetBitmap(b)
	case KindFiles:
		err = a.backend.SetFiles(p.Files)
	default:
		return apperr.New(apperr.ClipboardRestoreFailed, "nothing to restore for %s", p.Kind)
	}
	if err != nil {
		return apperr.Wrap(apperr.ClipboardRestoreFailed, err, "write %s", p.Kind)
	}
	return nil
}
