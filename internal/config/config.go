package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sloganking/ocr-paste/internal/hotkey"
)

// DefaultEndpoint is the OpenAI transcription endpoint.
const DefaultEndpoint = "https://api.openai.com/v1/audio/transcriptions"

// WhisperSizeLimit is the upload ceiling of the transcription backend (25 MiB).
const WhisperSizeLimit int64 = 25 * 1024 * 1024

// Config holds configurable parameters. Keys match the command-line flags,
// the JSON config file and the OCR_PASTE_* environment variables.
type Config struct {
	TriggerKey string `json:"trigger-key" mapstructure:"trigger-key" validate:"required"`
	HotKeyHook bool   `json:"hotkey-hook" mapstructure:"hotkey-hook"`

	Lang          string   `json:"lang" mapstructure:"lang" validate:"required"`
	TesseractCmd  string   `json:"tesseract-cmd" mapstructure:"tesseract-cmd" validate:"required"`
	TessdataDir   string   `json:"tessdata-dir" mapstructure:"tessdata-dir"`
	TesseractArgs []string `json:"tesseract-args" mapstructure:"tesseract-args"`

	FFmpegCmd string `json:"ffmpeg-cmd" mapstructure:"ffmpeg-cmd" validate:"required"`

	APIKey         string `json:"openai-api-key" mapstructure:"openai-api-key"`
	APIEndpoint    string `json:"api-endpoint" mapstructure:"api-endpoint" validate:"required,url"`
	Model          string `json:"model" mapstructure:"model" validate:"required"`
	Language       string `json:"language" mapstructure:"language"`
	Prompt         string `json:"prompt" mapstructure:"prompt"`
	TextPath       string `json:"text-path" mapstructure:"text-path"`
	RequestTimeout int    `json:"request-timeout" mapstructure:"request-timeout" validate:"gte=1"`
	EnableHTTP2    bool   `json:"enable-http2" mapstructure:"enable-http2"`
	VerifySSL      bool   `json:"verify-ssl" mapstructure:"verify-ssl"`

	MaxUploadBytes        int64    `json:"max-upload-bytes" mapstructure:"max-upload-bytes" validate:"gt=0"`
	AudioExtensions       []string `json:"audio-extensions" mapstructure:"audio-extensions" validate:"min=1,dive,required"`
	VideoExtensions       []string `json:"video-extensions" mapstructure:"video-extensions" validate:"min=1,dive,required"`
	NativeAudioExtensions []string `json:"native-audio-extensions" mapstructure:"native-audio-extensions" validate:"dive,required"`

	TempDir           string `json:"temp-dir" mapstructure:"temp-dir"`
	ClipboardAttempts int    `json:"clipboard-attempts" mapstructure:"clipboard-attempts" validate:"gte=1,lte=100"`
	SettleDelayMS     int    `json:"settle-delay-ms" mapstructure:"settle-delay-ms" validate:"gte=0"`
	KeyDelayMS        int    `json:"key-delay-ms" mapstructure:"key-delay-ms" validate:"gte=0"`

	Notification bool   `json:"notification" mapstructure:"notification"`
	LogFormat    string `json:"log-format" mapstructure:"log-format" validate:"oneof=auto text json"`
	LogLevel     string `json:"log-level" mapstructure:"log-level"`
	HotkeyDebug  bool   `json:"hotkey-debug" mapstructure:"hotkey-debug"`
	FFmpegDebug  bool   `json:"ffmpeg-debug" mapstructure:"ffmpeg-debug"`
	UploadDebug  bool   `json:"upload-debug" mapstructure:"upload-debug"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		TriggerKey:    "f9",
		HotKeyHook:    false,
		Lang:          "eng",
		TesseractCmd:  "tesseract",
		TessdataDir:   "",
		TesseractArgs: []string{},
		FFmpegCmd:     "ffmpeg",

		APIKey:         "",
		APIEndpoint:    DefaultEndpoint,
		Model:          "whisper-1",
		Language:       "",
		Prompt:         "",
		TextPath:       "text",
		RequestTimeout: 120,
		EnableHTTP2:    true,
		VerifySSL:      true,

		MaxUploadBytes: WhisperSizeLimit,
		AudioExtensions: []string{
			"wav", "mp3", "m4a", "ogg", "flac", "aac", "wma", "opus", "aiff", "aif",
		},
		VideoExtensions: []string{
			"mp4", "mkv", "mov", "avi", "wmv", "flv", "webm", "mpeg", "mpg", "m4v", "3gp",
		},
		NativeAudioExtensions: []string{"mp3", "wav", "flac", "m4a", "ogg"},

		TempDir:           "",
		ClipboardAttempts: 10,
		SettleDelayMS:     150,
		KeyDelayMS:        30,

		Notification: false,
		LogFormat:    "auto",
		LogLevel:     "",
	}
}

// SaveDefault writes a default config JSON to the provided path.
func SaveDefault(path string) error {
	cfg := DefaultConfig()
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate verifies config fields and returns an error if any value is invalid.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := hotkey.ParseKey(cfg.TriggerKey); err != nil {
		return fmt.Errorf("invalid trigger-key '%s': %w", cfg.TriggerKey, err)
	}
	video := normalizeExts(cfg.VideoExtensions)
	for _, ext := range cfg.AudioExtensions {
		if slices.Contains(video, normalizeExt(ext)) {
			return fmt.Errorf("extension '%s' is listed as both audio and video", ext)
		}
	}
	return nil
}

// Normalize lower-cases extension lists and strips leading dots so lookups
// can compare against filepath.Ext output directly.
func Normalize(cfg *Config) {
	cfg.AudioExtensions = normalizeExts(cfg.AudioExtensions)
	cfg.VideoExtensions = normalizeExts(cfg.VideoExtensions)
	cfg.NativeAudioExtensions = normalizeExts(cfg.NativeAudioExtensions)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
}

// Snapshot returns a deep copy that a cycle can hold without observing
// later changes.
func (c Config) Snapshot() Config {
	c.TesseractArgs = slices.Clone(c.TesseractArgs)
	c.AudioExtensions = slices.Clone(c.AudioExtensions)
	c.VideoExtensions = slices.Clone(c.VideoExtensions)
	c.NativeAudioExtensions = slices.Clone(c.NativeAudioExtensions)
	return c
}

// TranscriptionEnabled reports whether a credential is configured.
func (c Config) TranscriptionEnabled() bool { return c.APIKey != "" }

// SettleDelay is the pause around the simulated paste.
func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

// KeyDelay is the pause between injected key events.
func (c Config) KeyDelay() time.Duration {
	return time.Duration(c.KeyDelayMS) * time.Millisecond
}

// Timeout is the transcription request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// TempDir returns the directory to use for temporary files.
func TempDir(cfg *Config) string {
	if cfg.TempDir != "" {
		return cfg.TempDir
	}
	return os.TempDir()
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		if n := normalizeExt(e); n != "" {
			out = append(out, n)
		}
	}
	return out
}
