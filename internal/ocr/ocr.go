// Package ocr runs the tesseract command-line engine on an image file.
package ocr

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	execute "github.com/alexellis/go-execute/v2"

	"github.com/sloganking/ocr-paste/internal/apperr"
	"github.com/sloganking/ocr-paste/internal/media"
)

// Options configures a Tesseract runner.
type Options struct {
	Cmd         string
	Lang        string
	TessdataDir string
	ExtraArgs   []string
	Debug       bool
	Runner      media.Runner
}

// Tesseract recognises text by invoking the tesseract binary.
type Tesseract struct {
	opts Options
	log  *slog.Logger
}

// New returns a runner. Empty Cmd and Lang default to "tesseract" and "eng".
func New(opts Options) *Tesseract {
	if opts.Cmd == "" {
		opts.Cmd = "tesseract"
	}
	if opts.Lang == "" {
		opts.Lang = "eng"
	}
	if opts.Runner == nil {
		opts.Runner = media.ExecRunner
	}
	return &Tesseract{opts: opts, log: slog.With("component", "ocr")}
}

// Args builds the command line for image: the text goes to stdout.
func (t *Tesseract) Args(image string) []string {
	args := []string{image, "stdout", "-l", t.opts.Lang}
	if t.opts.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.opts.TessdataDir)
	}
	return append(args, t.opts.ExtraArgs...)
}

// Recognize returns the raw text tesseract prints for image.
func (t *Tesseract) Recognize(ctx context.Context, image string) (string, error) {
	args := t.Args(image)
	if t.opts.Debug {
		t.log.Debug("executing", "cmd", t.opts.Cmd+" "+strings.Join(args, " "))
	}
	res, err := t.opts.Runner(ctx, execute.ExecTask{Command: t.opts.Cmd, Args: args})
	if err != nil {
		if media.ToolMissing(t.opts.Cmd, err) {
			return "", apperr.Wrap(apperr.OcrToolMissing, err, "tesseract not found").
				WithDetail("cmd", t.opts.Cmd)
		}
		return "", apperr.Wrap(apperr.OcrToolFailed, err, "start tesseract")
	}
	if res.ExitCode != 0 {
		return "", apperr.New(apperr.OcrToolFailed, "tesseract exited with code %d", res.ExitCode).
			WithDetail("exit_code", res.ExitCode).
			WithDetail("stderr", media.Tail(res.Stderr, 2000))
	}
	if !utf8.ValidString(res.Stdout) {
		return "", apperr.New(apperr.OcrToolFailed, "tesseract output is not valid UTF-8").
			WithDetail("bytes", len(res.Stdout))
	}
	return res.Stdout, nil
}
