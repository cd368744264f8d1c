package pipeline

import "fmt"

// State is a step of one capture-process-restore cycle.
type State int

const (
	Idle State = iota
	Capturing
	Processing
	ResultEmpty
	ResultReady
	ProcessingFailed
	Restoring
)

var stateNames = [...]string{
	Idle:             "idle",
	Capturing:        "capturing",
	Processing:       "processing",
	ResultEmpty:      "result_empty",
	ResultReady:      "result_ready",
	ProcessingFailed: "processing_failed",
	Restoring:        "restoring",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome summarises how a cycle ended.
type Outcome string

const (
	// OutcomeText: text was written and pasted, then the clipboard restored.
	OutcomeText Outcome = "text"
	// OutcomeEmpty: the backend found nothing; only the restore ran.
	OutcomeEmpty Outcome = "empty"
	// OutcomeFailed: processing, writing or pasting failed; restore ran.
	OutcomeFailed Outcome = "failed"
	// OutcomeCaptureFailed: nothing was captured, so nothing was restored.
	OutcomeCaptureFailed Outcome = "capture_failed"
)
