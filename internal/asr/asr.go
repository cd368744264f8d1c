// Package asr uploads audio to an OpenAI-compatible transcription endpoint.
package asr

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/sloganking/ocr-paste/internal/apperr"
	"github.com/sloganking/ocr-paste/internal/media"
)

// Options configures a Client.
type Options struct {
	Endpoint string
	APIKey   string
	Model    string
	Language string
	Prompt   string
	// TextPath locates the transcript in the JSON response, e.g. "text" or
	// "results[0].transcript".
	TextPath string
	// MaxBytes is the largest file uploaded.
	MaxBytes int64
	Debug    bool
}

// Client performs transcription uploads. It never retries.
type Client struct {
	opts Options
	http *http.Client
	log  *slog.Logger
}

// New creates a client. A nil httpClient uses a plain client with a two
// minute timeout.
func New(opts Options, httpClient *http.Client) *Client {
	if opts.Model == "" {
		opts.Model = "whisper-1"
	}
	if opts.TextPath == "" {
		opts.TextPath = "text"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{opts: opts, http: httpClient, log: slog.With("component", "asr")}
}

// Enabled reports whether a credential is configured.
func (c *Client) Enabled() bool { return c.opts.APIKey != "" }

// Transcribe uploads the file at path and returns the transcript. The
// credential and the size limit are checked before anything is sent.
func (c *Client) Transcribe(ctx context.Context, path string) (string, error) {
	if !c.Enabled() {
		return "", apperr.New(apperr.CredentialMissing, "no transcription API key configured")
	}
	size, err := media.CheckSize(path, c.opts.MaxBytes)
	if err != nil {
		return "", err
	}

	body, contentType, err := c.buildForm(path)
	if err != nil {
		return "", apperr.Wrap(apperr.TranscriptionRequestFailed, err, "build upload").WithDetail("path", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, body)
	if err != nil {
		return "", apperr.Wrap(apperr.TranscriptionRequestFailed, err, "new request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("User-Agent", "ocr-paste/1.0")

	if c.opts.Debug {
		c.log.Debug("uploading", "path", path, "size", humanize.IBytes(uint64(size)), "endpoint", c.opts.Endpoint)
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.TranscriptionRequestFailed, err, "request")
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.TranscriptionRequestFailed, err, "read response")
	}
	if c.opts.Debug {
		c.log.Debug("response", "status", resp.StatusCode, "elapsed", time.Since(start), "body", formatResponse(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		return "", apperr.New(apperr.TranscriptionRequestFailed, "endpoint returned %s", resp.Status).
			WithDetail("status", resp.StatusCode).
			WithDetail("body", formatResponse(respBody))
	}

	text, ok := extractText(respBody, c.opts.TextPath)
	if !ok {
		return "", apperr.New(apperr.TranscriptionRequestFailed, "no text at %q in response", c.opts.TextPath).
			WithDetail("body", formatResponse(respBody))
	}
	return text, nil
}

func (c *Client) buildForm(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	fields := []struct{ key, val string }{
		{"model", c.opts.Model},
		{"language", c.opts.Language},
		{"prompt", c.opts.Prompt},
	}
	for _, fld := range fields {
		if fld.val == "" {
			continue
		}
		if err := w.WriteField(fld.key, fld.val); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

func formatResponse(b []byte) string {
	if len(b) == 0 {
		return "<empty>"
	}
	const maxText = 1000
	const maxBin = 256

	if utf8.Valid(b) {
		if len(b) > maxText {
			return fmt.Sprintf("%s... (truncated, total %d bytes)", b[:maxText], len(b))
		}
		return string(b)
	}
	if len(b) > maxBin {
		return fmt.Sprintf("<binary %d bytes, prefix hex: %s...>", len(b), hex.EncodeToString(b[:maxBin]))
	}
	return fmt.Sprintf("<binary %d bytes, hex: %s>", len(b), hex.EncodeToString(b))
}
