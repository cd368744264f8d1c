// Package app wires configuration, clipboard, backends and the trigger into
// the runnable modes of the program.
package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/http2"

	"github.com/sloganking/ocr-paste/internal/apperr"
	"github.com/sloganking/ocr-paste/internal/asr"
	"github.com/sloganking/ocr-paste/internal/clipboard"
	"github.com/sloganking/ocr-paste/internal/config"
	"github.com/sloganking/ocr-paste/internal/dispatch"
	"github.com/sloganking/ocr-paste/internal/hotkey"
	"github.com/sloganking/ocr-paste/internal/media"
	"github.com/sloganking/ocr-paste/internal/notify"
	"github.com/sloganking/ocr-paste/internal/ocr"
	"github.com/sloganking/ocr-paste/internal/paste"
	"github.com/sloganking/ocr-paste/internal/pipeline"
	"github.com/sloganking/ocr-paste/internal/tempfile"
)

// Name is the program name used in banners and notifications.
const Name = "ocr-paste"

// RunListen registers the trigger key and runs cycles until ctx ends.
// Failing to register the trigger is fatal.
func RunListen(ctx context.Context, cfg config.Config, out io.Writer) error {
	printBanner(out, cfg)

	orch, err := newOrchestrator(cfg)
	if err != nil {
		return err
	}
	worker := pipeline.NewWorker(orch)
	notifier := notify.New(cfg.Notification, Name)
	worker.OnCycle = func(_ pipeline.Event, rep pipeline.Report) {
		notifier.Notify(summary(rep))
	}

	onPress := func() {
		ev := worker.Enqueue()
		if cfg.HotkeyDebug {
			slog.Debug("trigger pressed", "component", "hotkey", "seq", ev.Seq)
		}
	}
	if err := hotkey.Listen(cfg.TriggerKey, cfg.HotKeyHook, onPress, cfg.HotkeyDebug); err != nil {
		return fmt.Errorf("register trigger: %w", err)
	}

	fmt.Fprintf(out, "Ready. Press %s to process the clipboard.\n", strings.ToUpper(cfg.TriggerKey))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// RunOnce runs a single cycle immediately.
func RunOnce(ctx context.Context, cfg config.Config) (pipeline.Report, error) {
	orch, err := newOrchestrator(cfg)
	if err != nil {
		return pipeline.Report{}, err
	}
	rep := orch.RunCycle(ctx)
	notify.New(cfg.Notification, Name).Notify(summary(rep))
	return rep, rep.Err
}

// RunFile processes a file on disk without touching the clipboard and
// writes the text to outputPath, to <input>.txt when outputPath is empty,
// or to out when outputPath is "-".
func RunFile(ctx context.Context, cfg config.Config, inputPath, outputPath string, out io.Writer) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("file '%s' stat failed: %w", inputPath, err)
	}
	tmp := tempfile.New(config.TempDir(&cfg))
	tmp.Sweep()

	payload, err := filePayload(inputPath)
	if err != nil {
		return err
	}
	text, err := newDispatcher(cfg, tmp).Process(ctx, payload)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)

	switch outputPath {
	case "-":
		_, err = fmt.Fprintln(out, text)
		return err
	case "":
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		outputPath = filepath.Join(".", base+".txt")
	}
	if err := os.WriteFile(outputPath, []byte(text), 0644); err != nil {
		return err
	}
	slog.Info("wrote text", "path", outputPath, "chars", len([]rune(text)))
	return nil
}

// filePayload treats image files as a bitmap capture and anything else as
// a single copied file.
func filePayload(path string) (clipboard.Payload, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return clipboard.Payload{}, fmt.Errorf("detect type of '%s': %w", path, err)
	}
	if strings.HasPrefix(mt.String(), "image/") {
		b, err := os.ReadFile(path)
		if err != nil {
			return clipboard.Payload{}, err
		}
		return clipboard.ImagePayload(b), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return clipboard.FilesPayload([]string{abs}), nil
}

func newOrchestrator(cfg config.Config) (*pipeline.Orchestrator, error) {
	tmp := tempfile.New(config.TempDir(&cfg))
	if n := tmp.Sweep(); n > 0 {
		slog.Info("removed stale temp files", "count", n, "dir", tmp.Dir())
	}

	inj, err := paste.NewKeybdInjector()
	if err != nil {
		return nil, err
	}
	acc := clipboard.NewAccessor(clipboard.NewSystem(), cfg.ClipboardAttempts)
	sim := paste.NewSimulator(inj, cfg.KeyDelay())
	return pipeline.NewOrchestrator(acc, newDispatcher(cfg, tmp), sim, cfg.SettleDelay()), nil
}

func newDispatcher(cfg config.Config, tmp *tempfile.Manager) *dispatch.Dispatcher {
	prep := media.NewPreparer(tmp, media.Options{
		FFmpegCmd: cfg.FFmpegCmd,
		Native:    cfg.NativeAudioExtensions,
		Debug:     cfg.FFmpegDebug,
	})
	tess := ocr.New(ocr.Options{
		Cmd:         cfg.TesseractCmd,
		Lang:        cfg.Lang,
		TessdataDir: cfg.TessdataDir,
		ExtraArgs:   cfg.TesseractArgs,
		Debug:       cfg.FFmpegDebug,
	})
	client := asr.New(asr.Options{
		Endpoint: cfg.APIEndpoint,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Language: cfg.Language,
		Prompt:   cfg.Prompt,
		TextPath: cfg.TextPath,
		MaxBytes: cfg.MaxUploadBytes,
		Debug:    cfg.UploadDebug,
	}, newHTTPClient(cfg))
	policy := dispatch.Policy{Audio: cfg.AudioExtensions, Video: cfg.VideoExtensions}
	return dispatch.New(policy, prep, tess, client)
}

func newHTTPClient(cfg config.Config) *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if !cfg.VerifySSL {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(tr); err != nil {
			slog.Warn("http2 setup failed; using HTTP/1.1", "err", err)
		}
	}
	return &http.Client{Transport: tr, Timeout: cfg.Timeout()}
}

func summary(rep pipeline.Report) string {
	switch rep.Outcome {
	case pipeline.OutcomeText:
		return fmt.Sprintf("Pasted %d characters", len([]rune(rep.Text)))
	case pipeline.OutcomeEmpty:
		return "No text found"
	}
	msg := "Failed"
	if kind := apperr.KindOf(rep.Err); kind != "" {
		msg += ": " + strings.ToLower(strings.ReplaceAll(string(kind), "_", " "))
	}
	if rep.RestoreErr != nil {
		msg += " (clipboard not restored)"
	}
	return msg
}

func printBanner(w io.Writer, cfg config.Config) {
	fmt.Fprintf(w, "%s: clipboard image OCR and audio/video transcription\n", Name)
	fmt.Fprintf(w, "  trigger:       %s (%s)\n", strings.ToUpper(cfg.TriggerKey), triggerMode(cfg.HotKeyHook))
	fmt.Fprintf(w, "  ocr:           %s -l %s\n", cfg.TesseractCmd, cfg.Lang)
	if cfg.TessdataDir != "" {
		fmt.Fprintf(w, "  tessdata:      %s\n", cfg.TessdataDir)
	}
	if cfg.TranscriptionEnabled() {
		fmt.Fprintf(w, "  transcription: enabled (%s via %s)\n", cfg.Model, cfg.APIEndpoint)
	} else {
		fmt.Fprintln(w, "  transcription: disabled (set OPENAI_API_KEY to enable)")
	}
	fmt.Fprintf(w, "  audio:         %s\n", strings.Join(cfg.AudioExtensions, ", "))
	fmt.Fprintf(w, "  video:         %s\n", strings.Join(cfg.VideoExtensions, ", "))
}

func triggerMode(hook bool) string {
	if hook {
		return "keyboard hook"
	}
	return "RegisterHotKey"
}
