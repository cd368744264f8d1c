// Package dispatch routes a captured clipboard payload to OCR or
// transcription and returns the raw text the backend produced.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/sloganking/ocr-paste/internal/apperr"
	"github.com/sloganking/ocr-paste/internal/clipboard"
	"github.com/sloganking/ocr-paste/internal/media"
	"github.com/sloganking/ocr-paste/internal/tempfile"
)

// Route is the processing path chosen for a payload.
type Route int

const (
	RouteImage Route = iota + 1
	RouteAudio
	RouteVideo
)

func (r Route) String() string {
	switch r {
	case RouteImage:
		return "image"
	case RouteAudio:
		return "audio"
	case RouteVideo:
		return "video"
	default:
		return fmt.Sprintf("route(%d)", int(r))
	}
}

// Preparer converts payloads into backend input files.
type Preparer interface {
	DecodeAndSavePNG(bitmap []byte) (*tempfile.Artifact, error)
	ExtractAudio(ctx context.Context, in string) (*tempfile.Artifact, error)
	NormalizeAudio(ctx context.Context, in string) (string, *tempfile.Artifact, error)
}

// Recognizer is the OCR backend.
type Recognizer interface {
	Recognize(ctx context.Context, image string) (string, error)
}

// Transcriber is the speech-to-text backend.
type Transcriber interface {
	Enabled() bool
	Transcribe(ctx context.Context, path string) (string, error)
}

// Policy holds the extension allow-lists, lower case without dots.
type Policy struct {
	Audio []string
	Video []string
}

// Dispatcher is stateless between calls.
type Dispatcher struct {
	policy Policy
	prep   Preparer
	ocr    Recognizer
	asr    Transcriber
	log    *slog.Logger
}

// New returns a Dispatcher.
func New(policy Policy, prep Preparer, ocr Recognizer, asr Transcriber) *Dispatcher {
	return &Dispatcher{
		policy: policy,
		prep:   prep,
		ocr:    ocr,
		asr:    asr,
		log:    slog.With("component", "dispatch"),
	}
}

// Classify picks the route for p. For file payloads it also returns the
// single path. It touches neither the filesystem nor any backend.
func (d *Dispatcher) Classify(p clipboard.Payload) (Route, string, error) {
	switch p.Kind {
	case clipboard.KindImage:
		return RouteImage, "", nil
	case clipboard.KindFiles:
		if len(p.Files) != 1 {
			return 0, "", apperr.New(apperr.UnsupportedFileCount, "expected exactly one file, got %d", len(p.Files)).
				WithDetail("count", len(p.Files))
		}
		path := p.Files[0]
		ext := media.Ext(path)
		switch {
		case slices.Contains(d.policy.Audio, ext):
			return RouteAudio, path, nil
		case slices.Contains(d.policy.Video, ext):
			return RouteVideo, path, nil
		}
		return 0, path, apperr.New(apperr.UnsupportedFileType, "unsupported file type %q", ext).
			WithDetail("path", path)
	}
	return 0, "", apperr.New(apperr.NoSupportedFormat, "unknown payload kind %s", p.Kind)
}

// Process runs the chosen backend. Every artifact acquired on the way is
// released before it returns.
func (d *Dispatcher) Process(ctx context.Context, p clipboard.Payload) (string, error) {
	route, path, err := d.Classify(p)
	if err != nil {
		return "", err
	}
	d.log.Info("processing", "route", route.String(), "path", path)

	switch route {
	case RouteImage:
		return d.recognize(ctx, p.Image)
	case RouteAudio:
		if err := d.requireCredential(); err != nil {
			return "", err
		}
		if d.log.Enabled(ctx, slog.LevelDebug) {
			d.log.Debug("input", "path", path, "desc", media.Describe(path))
		}
		upload, art, err := d.prep.NormalizeAudio(ctx, path)
		if err != nil {
			return "", err
		}
		defer art.Release()
		return d.asr.Transcribe(ctx, upload)
	case RouteVideo:
		if err := d.requireCredential(); err != nil {
			return "", err
		}
		art, err := d.prep.ExtractAudio(ctx, path)
		if err != nil {
			return "", err
		}
		defer art.Release()
		return d.asr.Transcribe(ctx, art.Path())
	}
	return "", apperr.New(apperr.NoSupportedFormat, "no backend for %s", route)
}

func (d *Dispatcher) recognize(ctx context.Context, bitmap []byte) (string, error) {
	art, err := d.prep.DecodeAndSavePNG(bitmap)
	if err != nil {
		return "", err
	}
	defer art.Release()
	return d.ocr.Recognize(ctx, art.Path())
}

func (d *Dispatcher) requireCredential() error {
	if d.asr == nil || !d.asr.Enabled() {
		return apperr.New(apperr.CredentialMissing, "transcription needs an API key (OPENAI_API_KEY)")
	}
	return nil
}
