// Package paste simulates the Ctrl+V keystroke that inserts the clipboard
// into the focused application.
package paste

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sloganking/ocr-paste/internal/apperr"
)

// Key identifies one of the keys the simulator presses.
type Key int

const (
	KeyControl Key = iota + 1
	KeyV
)

func (k Key) String() string {
	switch k {
	case KeyControl:
		return "ctrl"
	case KeyV:
		return "v"
	default:
		return fmt.Sprintf("key(%d)", int(k))
	}
}

// Injector emits single key transitions to the OS input queue.
type Injector interface {
	KeyDown(k Key) error
	KeyUp(k Key) error
}

// Simulator presses Ctrl, V, releases V, releases Ctrl with a fixed delay
// between each event.
type Simulator struct {
	inj   Injector
	delay time.Duration
	sleep func(context.Context, time.Duration)
}

// NewSimulator returns a Simulator using inj.
func NewSimulator(inj Injector, delay time.Duration) *Simulator {
	return &Simulator{inj: inj, delay: delay, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Paste sends the four key events. Once Ctrl is down it is always released,
// even when a later event fails.
func (s *Simulator) Paste(ctx context.Context) error {
	if err := s.inj.KeyDown(KeyControl); err != nil {
		return wrap(err, "ctrl down")
	}
	s.sleep(ctx, s.delay)

	err := s.pressV(ctx)
	s.sleep(ctx, s.delay)

	if upErr := s.inj.KeyUp(KeyControl); upErr != nil {
		slog.Warn("release ctrl failed", "component", "paste", "err", upErr)
		if err == nil {
			err = wrap(upErr, "ctrl up")
		}
	}
	return err
}

func (s *Simulator) pressV(ctx context.Context) error {
	if err := s.inj.KeyDown(KeyV); err != nil {
		return wrap(err, "v down")
	}
	s.sleep(ctx, s.delay)
	if err := s.inj.KeyUp(KeyV); err != nil {
		return wrap(err, "v up")
	}
	return nil
}

func wrap(err error, step string) error {
	return apperr.Wrap(apperr.PasteSimulationFailed, err, "simulate paste").WithDetail("step", step)
}
