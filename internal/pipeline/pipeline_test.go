package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sloganking/ocr-paste/internal/apperr"
	"github.com/sloganking/ocr-paste/internal/clipboard"
)

// memBackend is an in-memory clipboard.Backend that logs every call.
type memBackend struct {
	mu       sync.Mutex
	files    []string
	bitmap   []byte
	text     string
	ops      []string
	setErr   map[string]error
	unusable bool
}

func (m *memBackend) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op)
	return m.setErr[op]
}

func (m *memBackend) Name() string { return "mem" }

func (m *memBackend) Open() error {
	if m.unusable {
		return errors.New("no clipboard")
	}
	return nil
}

func (m *memBackend) Close() error { return nil }

func (m *memBackend) Files() ([]string, error) {
	if m.files == nil {
		return nil, clipboard.ErrFormatUnavailable
	}
	return m.files, nil
}

func (m *memBackend) Bitmap() ([]byte, []byte, error) {
	if m.bitmap == nil {
		return nil, nil, clipboard.ErrFormatUnavailable
	}
	return m.bitmap, m.bitmap, nil
}

func (m *memBackend) SetText(text string) error {
	if err := m.record("text:" + text); err != nil {
		return err
	}
	m.files, m.bitmap, m.text = nil, nil, text
	return nil
}

func (m *memBackend) SetBitmap(b []byte) error {
	if err := m.record("bitmap"); err != nil {
		return err
	}
	m.files, m.bitmap, m.text = nil, b, ""
	return nil
}

func (m *memBackend) SetFiles(paths []string) error {
	if err := m.record("files"); err != nil {
		return err
	}
	m.files, m.bitmap, m.text = paths, nil, ""
	return nil
}

type procFunc func(context.Context, clipboard.Payload) (string, error)

func (f procFunc) Process(ctx context.Context, p clipboard.Payload) (string, error) { return f(ctx, p) }

type fakePaster struct {
	backend *memBackend
	err     error
	calls   int
	sawText string
}

func (f *fakePaster) Paste(context.Context) error {
	f.calls++
	f.sawText = f.backend.text
	_ = f.backend.record("paste")
	return f.err
}

type harness struct {
	backend *memBackend
	paster  *fakePaster
	orch    *Orchestrator
	states  []State
	sleeps  []time.Duration
}

func newHarness(b *memBackend, proc Processor) *harness {
	h := &harness{backend: b, paster: &fakePaster{backend: b}}
	acc := clipboard.NewAccessor(b, 2)
	acc.Interval = time.Millisecond
	h.orch = NewOrchestrator(acc, proc, h.paster, 150*time.Millisecond)
	h.orch.sleep = func(d time.Duration) { h.sleeps = append(h.sleeps, d) }
	h.orch.Observer = func(_, to State) { h.states = append(h.states, to) }
	return h
}

func returns(text string, err error) Processor {
	return procFunc(func(context.Context, clipboard.Payload) (string, error) { return text, err })
}

func TestResultReadyPastesThenRestores(t *testing.T) {
	b := &memBackend{files: []string{"/rec/a.wav"}}
	h := newHarness(b, returns("  hello world \n", nil))

	rep := h.orch.RunCycle(context.Background())
	require.NoError(t, rep.Err)
	assert.Equal(t, OutcomeText, rep.Outcome)
	assert.Equal(t, "hello world", rep.Text)
	assert.Equal(t, "hello world", h.paster.sawText)
	assert.Equal(t, []string{"text:hello world", "paste", "files"}, b.ops)
	assert.Equal(t, []string{"/rec/a.wav"}, b.files)
	assert.Equal(t, []State{Capturing, Processing, ResultReady, Restoring, Idle}, h.states)
	assert.Equal(t, []time.Duration{150 * time.Millisecond, 150 * time.Millisecond}, h.sleeps)
}

func TestWhiteBitmapWithEmptyOCR(t *testing.T) {
	bitmap := []byte("BM white 100x50")
	b := &memBackend{bitmap: bitmap}
	h := newHarness(b, returns(" \n\t", nil))

	rep := h.orch.RunCycle(context.Background())
	assert.Equal(t, OutcomeEmpty, rep.Outcome)
	assert.NoError(t, rep.Err)
	assert.Zero(t, h.paster.calls)
	assert.Equal(t, []string{"bitmap"}, b.ops)
	assert.Equal(t, bitmap, b.bitmap)
	assert.Equal(t, []State{Capturing, Processing, ResultEmpty, Restoring, Idle}, h.states)
}

func TestProcessingFailureRestores(t *testing.T) {
	b := &memBackend{files: []string{`C:\a.mp4`}}
	h := newHarness(b, returns("", apperr.New(apperr.ConversionToolMissing, "ffmpeg not found")))

	rep := h.orch.RunCycle(context.Background())
	assert.Equal(t, OutcomeFailed, rep.Outcome)
	assert.ErrorIs(t, rep.Err, apperr.ConversionToolMissing)
	assert.NoError(t, rep.RestoreErr)
	assert.Equal(t, []string{`C:\a.mp4`}, b.files)
	assert.Equal(t, []string{"files"}, b.ops)
	assert.Equal(t, []State{Capturing, Processing, ProcessingFailed, Restoring, Idle}, h.states)
}

func TestTwoFilesRestoredUnchanged(t *testing.T) {
	b := &memBackend{files: []string{"/a.wav", "/b.wav"}}
	h := newHarness(b, returns("", apperr.New(apperr.UnsupportedFileCount, "two files")))

	rep := h.orch.RunCycle(context.Background())
	assert.ErrorIs(t, rep.Err, apperr.UnsupportedFileCount)
	assert.Equal(t, []string{"/a.wav", "/b.wav"}, b.files)
}

func TestWriteFailureStillRestores(t *testing.T) {
	b := &memBackend{bitmap: []byte{1}, setErr: map[string]error{"text:ok": errors.New("denied")}}
	h := newHarness(b, returns("ok", nil))

	rep := h.orch.RunCycle(context.Background())
	assert.ErrorIs(t, rep.Err, apperr.ClipboardWriteFailed)
	assert.Zero(t, h.paster.calls)
	assert.Equal(t, []string{"text:ok", "bitmap"}, b.ops)
	assert.Equal(t, []byte{1}, b.bitmap)
}

func TestPasteFailureStillRestores(t *testing.T) {
	b := &memBackend{bitmap: []byte{1}}
	h := newHarness(b, returns("ok", nil))
	h.paster.err = apperr.New(apperr.PasteSimulationFailed, "blocked")

	rep := h.orch.RunCycle(context.Background())
	assert.Equal(t, OutcomeFailed, rep.Outcome)
	assert.ErrorIs(t, rep.Err, apperr.PasteSimulationFailed)
	assert.Equal(t, []string{"text:ok", "paste", "bitmap"}, b.ops)
}

func TestRestoreFailureReportedAlongsideError(t *testing.T) {
	b := &memBackend{bitmap: []byte{1}, setErr: map[string]error{"bitmap": errors.New("gone")}}
	h := newHarness(b, returns("", apperr.New(apperr.OcrToolFailed, "exit 1")))

	rep := h.orch.RunCycle(context.Background())
	assert.ErrorIs(t, rep.Err, apperr.OcrToolFailed)
	assert.ErrorIs(t, rep.RestoreErr, apperr.ClipboardRestoreFailed)
}

func TestPanickingProcessorStillRestores(t *testing.T) {
	b := &memBackend{bitmap: []byte("BM screenshot")}
	h := newHarness(b, procFunc(func(context.Context, clipboard.Payload) (string, error) {
		panic("decoder exploded")
	}))

	var rep Report
	require.NotPanics(t, func() { rep = h.orch.RunCycle(context.Background()) })
	assert.Equal(t, OutcomeFailed, rep.Outcome)
	assert.ErrorIs(t, rep.Err, apperr.ProcessingPanicked)
	assert.Contains(t, rep.Err.Error(), "decoder exploded")
	assert.NoError(t, rep.RestoreErr)
	assert.Equal(t, []string{"bitmap"}, b.ops)
	assert.Equal(t, []byte("BM screenshot"), b.bitmap)
	assert.Equal(t, []State{Capturing, Processing, ProcessingFailed, Restoring, Idle}, h.states)
	assert.Zero(t, h.paster.calls)
}

func TestWorkerSurvivesPanickingCycle(t *testing.T) {
	b := &memBackend{bitmap: []byte{9}}
	n := 0
	h := newHarness(b, procFunc(func(context.Context, clipboard.Payload) (string, error) {
		n++
		if n == 1 {
			panic("first cycle")
		}
		return "second", nil
	}))

	w := NewWorker(h.orch)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var outcomes []Outcome
	w.OnCycle = func(_ Event, rep Report) {
		outcomes = append(outcomes, rep.Outcome)
		if len(outcomes) == 2 {
			cancel()
		}
	}
	w.Enqueue()
	w.Enqueue()

	assert.ErrorIs(t, w.Run(ctx), context.Canceled)
	assert.Equal(t, []Outcome{OutcomeFailed, OutcomeText}, outcomes)
	assert.Equal(t, []string{"bitmap", "text:second", "paste", "bitmap"}, b.ops)
}

func TestCaptureFailureSkipsRestore(t *testing.T) {
	called := false
	b := &memBackend{text: "plain text only"}
	h := newHarness(b, procFunc(func(context.Context, clipboard.Payload) (string, error) {
		called = true
		return "", nil
	}))

	rep := h.orch.RunCycle(context.Background())
	assert.Equal(t, OutcomeCaptureFailed, rep.Outcome)
	assert.ErrorIs(t, rep.Err, apperr.NoSupportedFormat)
	assert.False(t, called)
	assert.Empty(t, b.ops)
	assert.Equal(t, "plain text only", b.text)
	assert.Equal(t, []State{Capturing, Idle}, h.states)

	b.unusable = true
	rep = h.orch.RunCycle(context.Background())
	assert.ErrorIs(t, rep.Err, apperr.ClipboardUnavailable)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "result_empty", ResultEmpty.String())
	assert.Equal(t, "state(42)", State(42).String())
}

func TestWorkerRunsInFIFOOrder(t *testing.T) {
	b := &memBackend{bitmap: []byte{1}}
	var order []int
	n := 0
	h := newHarness(b, procFunc(func(context.Context, clipboard.Payload) (string, error) {
		n++
		order = append(order, n)
		return "", nil
	}))

	w := NewWorker(h.orch)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seqs []uint64
	w.OnCycle = func(ev Event, rep Report) {
		seqs = append(seqs, ev.Seq)
		if len(seqs) == 3 {
			cancel()
		}
	}
	for i := 0; i < 3; i++ {
		w.Enqueue()
	}
	assert.Equal(t, 3, w.Pending())

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Zero(t, w.Pending())
}

func TestWorkerFinishesRunningCycleOnCancel(t *testing.T) {
	b := &memBackend{bitmap: []byte{5}}
	started := make(chan struct{})
	release := make(chan struct{})
	h := newHarness(b, procFunc(func(ctx context.Context, _ clipboard.Payload) (string, error) {
		close(started)
		<-release
		return "late text", ctx.Err()
	}))

	w := NewWorker(h.orch)
	var rep Report
	w.OnCycle = func(_ Event, r Report) { rep = r }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	w.Enqueue()
	<-started
	w.Enqueue()
	cancel()
	close(release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, OutcomeText, rep.Outcome)
	assert.Equal(t, []string{"text:late text", "paste", "bitmap"}, b.ops)
	assert.Equal(t, 1, w.Pending())
}
