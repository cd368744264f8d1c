// Package apperr defines the error taxonomy shared by every stage of a
// clipboard cycle. Errors carry a machine-readable Kind plus free-form
// details (paths, exit codes, captured stderr, byte sizes) for the log.
package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Kind is a machine-readable error code.
type Kind string

// Clipboard errors
const (
	ClipboardUnavailable   Kind = "CLIPBOARD_UNAVAILABLE"
	NoSupportedFormat      Kind = "NO_SUPPORTED_FORMAT"
	ClipboardWriteFailed   Kind = "CLIPBOARD_WRITE_FAILED"
	ClipboardRestoreFailed Kind = "CLIPBOARD_RESTORE_FAILED"
)

// Media preparation errors
const (
	TempResourceCreateFailed Kind = "TEMP_RESOURCE_CREATE_FAILED"
	ImageDecodeFailed        Kind = "IMAGE_DECODE_FAILED"
	ImageEncodeFailed        Kind = "IMAGE_ENCODE_FAILED"
	ConversionToolMissing    Kind = "CONVERSION_TOOL_MISSING"
	ConversionFailed         Kind = "CONVERSION_FAILED"
	PayloadTooLarge          Kind = "PAYLOAD_TOO_LARGE"
	EmptyPayload             Kind = "EMPTY_PAYLOAD"
)

// Backend errors
const (
	OcrToolMissing             Kind = "OCR_TOOL_MISSING"
	OcrToolFailed              Kind = "OCR_TOOL_FAILED"
	CredentialMissing          Kind = "CREDENTIAL_MISSING"
	TranscriptionRequestFailed Kind = "TRANSCRIPTION_REQUEST_FAILED"
)

// Dispatch and paste errors
const (
	UnsupportedFileType   Kind = "UNSUPPORTED_FILE_TYPE"
	UnsupportedFileCount  Kind = "UNSUPPORTED_FILE_COUNT"
	PasteSimulationFailed Kind = "PASTE_SIMULATION_FAILED"
)

// ProcessingPanicked reports a processor that panicked mid-cycle.
const ProcessingPanicked Kind = "PROCESSING_PANICKED"

// Error implements error so a bare Kind can be used as an errors.Is target.
func (k Kind) Error() string { return string(k) }

// Error is the error type produced at package boundaries.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error or a bare Kind with the same code.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// LogAttrs flattens err into slog attributes: the kind, the message and
// every detail in key order.
func LogAttrs(err error) []any {
	attrs := []any{slog.String("err", err.Error())}
	var ae *Error
	if !errors.As(err, &ae) {
		return attrs
	}
	attrs = append(attrs, slog.String("kind", string(ae.Kind)))
	keys := make([]string, 0, len(ae.Details))
	for k := range ae.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, ae.Details[k]))
	}
	return attrs
}
