// Package media turns captured clipboard content into files the OCR and
// transcription backends accept.
package media

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	execute "github.com/alexellis/go-execute/v2"

	"github.com/sloganking/ocr-paste/internal/tempfile"
)

// Runner executes a subprocess. Tests replace it.
type Runner func(ctx context.Context, task execute.ExecTask) (execute.ExecResult, error)

// ExecRunner runs task for real.
func ExecRunner(ctx context.Context, task execute.ExecTask) (execute.ExecResult, error) {
	return task.Execute(ctx)
}

// Preparer owns the conversion steps of one pipeline.
type Preparer struct {
	tmp    *tempfile.Manager
	ffmpeg string
	native []string
	debug  bool
	run    Runner
	log    *slog.Logger
}

// Options configures a Preparer.
type Options struct {
	FFmpegCmd string
	// Native lists audio extensions (no dot, lower case) uploaded as-is.
	Native []string
	Debug  bool
	Runner Runner
}

// NewPreparer returns a Preparer writing artifacts through tmp.
func NewPreparer(tmp *tempfile.Manager, opts Options) *Preparer {
	if opts.FFmpegCmd == "" {
		opts.FFmpegCmd = "ffmpeg"
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner
	}
	return &Preparer{
		tmp:    tmp,
		ffmpeg: opts.FFmpegCmd,
		native: opts.Native,
		debug:  opts.Debug,
		run:    opts.Runner,
		log:    slog.With("component", "media"),
	}
}

// Ext returns the lower-cased extension of path without the dot.
func Ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// IsNative reports whether path can be uploaded without conversion.
func (p *Preparer) IsNative(path string) bool {
	return slices.Contains(p.native, Ext(path))
}
