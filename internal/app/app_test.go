package app

import (
	"bytes"
	"context"
	"encoding/binary"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sloganking/ocr-paste/internal/apperr"
	"github.com/sloganking/ocr-paste/internal/clipboard"
	"github.com/sloganking/ocr-paste/internal/config"
	"github.com/sloganking/ocr-paste/internal/pipeline"
)

func whiteBMP(w, h int) []byte {
	stride := (w*3 + 3) &^ 3
	b := make([]byte, 54+stride*h)
	b[0], b[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(b[2:], uint32(len(b)))
	binary.LittleEndian.PutUint32(b[10:], 54)
	binary.LittleEndian.PutUint32(b[14:], 40)
	binary.LittleEndian.PutUint32(b[18:], uint32(w))
	binary.LittleEndian.PutUint32(b[22:], uint32(h))
	binary.LittleEndian.PutUint16(b[26:], 1)
	binary.LittleEndian.PutUint16(b[28:], 24)
	for i := 54; i < len(b); i++ {
		b[i] = 0xFF
	}
	return b
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Pasted 5 characters", summary(pipeline.Report{Outcome: pipeline.OutcomeText, Text: "héllo"}))
	assert.Equal(t, "No text found", summary(pipeline.Report{Outcome: pipeline.OutcomeEmpty}))
	assert.Equal(t, "Failed: conversion tool missing", summary(pipeline.Report{
		Outcome: pipeline.OutcomeFailed,
		Err:     apperr.New(apperr.ConversionToolMissing, "x"),
	}))
	assert.Equal(t, "Failed: ocr tool failed (clipboard not restored)", summary(pipeline.Report{
		Outcome:    pipeline.OutcomeFailed,
		Err:        apperr.New(apperr.OcrToolFailed, "x"),
		RestoreErr: apperr.New(apperr.ClipboardRestoreFailed, "y"),
	}))
}

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig()
	printBanner(&buf, cfg)
	assert.Contains(t, buf.String(), "F9 (RegisterHotKey)")
	assert.Contains(t, buf.String(), "transcription: disabled")

	buf.Reset()
	cfg.APIKey = "sk"
	cfg.HotKeyHook = true
	printBanner(&buf, cfg)
	assert.Contains(t, buf.String(), "transcription: enabled (whisper-1")
	assert.Contains(t, buf.String(), "keyboard hook")
}

func TestNewHTTPClient(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RequestTimeout = 7
	c := newHTTPClient(cfg)
	assert.Equal(t, 7*time.Second, c.Timeout)
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Contains(t, tr.TLSNextProto, "h2")

	cfg.EnableHTTP2 = false
	cfg.VerifySSL = false
	tr = newHTTPClient(cfg).Transport.(*http.Transport)
	assert.NotContains(t, tr.TLSNextProto, "h2")
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
}

func TestFilePayload(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "shot.bmp")
	require.NoError(t, os.WriteFile(img, whiteBMP(4, 4), 0o600))
	p, err := filePayload(img)
	require.NoError(t, err)
	assert.Equal(t, clipboard.KindImage, p.Kind)

	clip := filepath.Join(dir, "talk.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("not really a video"), 0o600))
	p, err = filePayload(clip)
	require.NoError(t, err)
	assert.Equal(t, clipboard.FilesPayload([]string{clip}), p)
}

func TestRunFileOCRWithScriptTool(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a unix shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "tesseract")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho '  Recognised line  '\n"), 0o755))
	img := filepath.Join(dir, "shot.bmp")
	require.NoError(t, os.WriteFile(img, whiteBMP(100, 50), 0o600))

	work := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.TesseractCmd = script
	cfg.TempDir = work

	var out bytes.Buffer
	require.NoError(t, RunFile(context.Background(), cfg, img, "-", &out))
	assert.Equal(t, "Recognised line\n", out.String())

	target := filepath.Join(dir, "out.txt")
	require.NoError(t, RunFile(context.Background(), cfg, img, target, &out))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "Recognised line", string(data))

	es, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, es)
}

func TestRunFileErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TempDir = t.TempDir()

	err := RunFile(context.Background(), cfg, filepath.Join(t.TempDir(), "missing.wav"), "-", &bytes.Buffer{})
	assert.Error(t, err)

	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o600))
	err = RunFile(context.Background(), cfg, notes, "-", &bytes.Buffer{})
	assert.ErrorIs(t, err, apperr.UnsupportedFileType)

	wav := filepath.Join(t.TempDir(), "memo.wav")
	require.NoError(t, os.WriteFile(wav, []byte("RIFF"), 0o600))
	err = RunFile(context.Background(), cfg, wav, "-", &bytes.Buffer{})
	assert.ErrorIs(t, err, apperr.CredentialMissing)
}
