// Package pipeline runs capture-process-restore cycles. Once the clipboard
// has been captured, a cycle always writes the original content back
// before it ends.
package pipeline

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sloganking/ocr-paste/internal/apperr"
	"github.com/sloganking/ocr-paste/internal/clipboard"
)

// Clipboard is the accessor the orchestrator drives.
type Clipboard interface {
	Capture(ctx context.Context) (clipboard.Payload, error)
	WriteText(ctx context.Context, text string) error
	Restore(ctx context.Context, p clipboard.Payload) error
}

// Processor turns a payload into text.
type Processor interface {
	Process(ctx context.Context, p clipboard.Payload) (string, error)
}

// Paster simulates the paste keystroke.
type Paster interface {
	Paste(ctx context.Context) error
}

// Report describes a finished cycle.
type Report struct {
	Outcome Outcome
	// Text is the trimmed text that was pasted, if any.
	Text string
	// Err is the first error of the cycle.
	Err error
	// RestoreErr is set when writing the original content back failed.
	RestoreErr error
	Duration   time.Duration
}

// Orchestrator owns the per-cycle state machine.
type Orchestrator struct {
	clip   Clipboard
	proc   Processor
	paster Paster
	settle time.Duration
	sleep  func(time.Duration)

	// Observer, when set, sees every state transition.
	Observer func(from, to State)

	state State
	log   *slog.Logger
}

// NewOrchestrator wires the collaborators. settle is the pause before and
// after the simulated paste.
func NewOrchestrator(clip Clipboard, proc Processor, paster Paster, settle time.Duration) *Orchestrator {
	return &Orchestrator{
		clip:   clip,
		proc:   proc,
		paster: paster,
		settle: settle,
		sleep:  time.Sleep,
		log:    slog.With("component", "pipeline"),
	}
}

func (o *Orchestrator) to(s State) {
	from := o.state
	o.state = s
	if o.Observer != nil {
		o.Observer(from, s)
	}
}

// RunCycle performs one full cycle. It is not safe for concurrent use;
// Worker serialises calls.
func (o *Orchestrator) RunCycle(ctx context.Context) Report {
	start := time.Now()
	o.to(Capturing)

	payload, err := o.clip.Capture(ctx)
	if err != nil {
		o.to(Idle)
		o.log.Warn("capture failed", apperr.LogAttrs(err)...)
		return Report{Outcome: OutcomeCaptureFailed, Err: err, Duration: time.Since(start)}
	}
	o.log.Info("captured", "payload", payload.String())

	o.to(Processing)
	rep := o.process(ctx, payload)

	o.to(Restoring)
	if err := o.clip.Restore(ctx, payload); err != nil {
		rep.RestoreErr = err
		o.log.Error("restore failed; original clipboard content lost", apperr.LogAttrs(err)...)
	}
	o.to(Idle)

	rep.Duration = time.Since(start)
	if rep.Err != nil {
		o.log.Error("cycle failed", append(apperr.LogAttrs(rep.Err), "elapsed", rep.Duration)...)
	} else {
		o.log.Info("cycle finished", "outcome", string(rep.Outcome), "chars", len([]rune(rep.Text)), "elapsed", rep.Duration)
	}
	return rep
}

func (o *Orchestrator) process(ctx context.Context, payload clipboard.Payload) (rep Report) {
	// A panic still ends in Restoring with the original content written back.
	defer func() {
		if r := recover(); r != nil {
			o.to(ProcessingFailed)
			rep = Report{
				Outcome: OutcomeFailed,
				Err: apperr.New(apperr.ProcessingPanicked, "processing panicked: %v", r).
					WithDetail("stack", string(debug.Stack())),
			}
		}
	}()

	raw, err := o.proc.Process(ctx, payload)
	if err != nil {
		o.to(ProcessingFailed)
		return Report{Outcome: OutcomeFailed, Err: err}
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		o.to(ResultEmpty)
		return Report{Outcome: OutcomeEmpty}
	}

	o.to(ResultReady)
	if err := o.clip.WriteText(ctx, text); err != nil {
		return Report{Outcome: OutcomeFailed, Err: err}
	}
	o.sleep(o.settle)
	err = o.paster.Paste(ctx)
	o.sleep(o.settle)
	if err != nil {
		return Report{Outcome: OutcomeFailed, Err: err}
	}
	return Report{Outcome: OutcomeText, Text: text}
}
