package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event is one trigger press.
type Event struct {
	Seq uint64
	At  time.Time
}

// Worker runs cycles one at a time in trigger order. Presses that arrive
// while a cycle runs are queued, never dropped.
type Worker struct {
	orch *Orchestrator

	// OnCycle, when set, is called after each cycle from the worker goroutine.
	OnCycle func(Event, Report)

	mu     sync.Mutex
	queue  []Event
	seq    uint64
	signal chan struct{}
}

// NewWorker returns a Worker for orch.
func NewWorker(orch *Orchestrator) *Worker {
	return &Worker{orch: orch, signal: make(chan struct{}, 1)}
}

// Enqueue records a trigger press. It never blocks and may be called from
// any goroutine.
func (w *Worker) Enqueue() Event {
	w.mu.Lock()
	w.seq++
	ev := Event{Seq: w.seq, At: time.Now()}
	w.queue = append(w.queue, ev)
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
	return ev
}

// Pending is the number of queued presses.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *Worker) next() (Event, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return Event{}, false
	}
	ev := w.queue[0]
	w.queue = w.queue[1:]
	return ev, true
}

// Run consumes the queue until ctx is cancelled. A cycle that has started
// runs to completion, restore included, even if ctx ends meanwhile.
func (w *Worker) Run(ctx context.Context) error {
	cycleCtx := context.WithoutCancel(ctx)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ev, ok := w.next()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.signal:
			}
			continue
		}
		slog.Debug("cycle start", "component", "worker", "seq", ev.Seq, "waited", time.Since(ev.At))
		rep := w.orch.RunCycle(cycleCtx)
		if w.OnCycle != nil {
			w.OnCycle(ev, rep)
		}
	}
}
