package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (OCR_PASTE_TRIGGER_KEY, ...).
const EnvPrefix = "OCR_PASTE"

// AddFlags registers every Config field as a flag, with defaults taken from
// DefaultConfig so that --help shows the effective values.
func AddFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()

	fs.String("config", "", "path to config JSON (default: ./config.json, then ~/.config/ocr-paste/config.json)")
	fs.String("env-file", ".env", "dotenv file loaded before reading the environment")

	fs.StringP("trigger-key", "t", d.TriggerKey, "key that triggers processing (e.g. f9, ctrl+shift+o)")
	fs.Bool("hotkey-hook", d.HotKeyHook, "use a low-level keyboard hook instead of RegisterHotKey")

	fs.StringP("lang", "l", d.Lang, "tesseract language code(s)")
	fs.String("tesseract-cmd", d.TesseractCmd, "tesseract command/path")
	fs.String("tessdata-dir", d.TessdataDir, "path to tesseract data directory")
	fs.StringSlice("tesseract-args", d.TesseractArgs, "additional tesseract CLI args")
	fs.String("ffmpeg-cmd", d.FFmpegCmd, "ffmpeg command/path")

	fs.String("openai-api-key", d.APIKey, "transcription API key (also read from OPENAI_API_KEY)")
	fs.String("api-endpoint", d.APIEndpoint, "transcription endpoint URL")
	fs.String("model", d.Model, "transcription model")
	fs.String("language", d.Language, "transcription language hint")
	fs.String("prompt", d.Prompt, "transcription prompt")
	fs.String("text-path", d.TextPath, "JSON path to extract text from the transcription response")
	fs.Int("request-timeout", d.RequestTimeout, "request timeout seconds")
	fs.Bool("enable-http2", d.EnableHTTP2, "enable HTTP/2")
	fs.Bool("verify-ssl", d.VerifySSL, "verify TLS certificates")

	fs.Int64("max-upload-bytes", d.MaxUploadBytes, "largest audio file sent for transcription")
	fs.StringSlice("audio-extensions", d.AudioExtensions, "file extensions routed to transcription as audio")
	fs.StringSlice("video-extensions", d.VideoExtensions, "file extensions whose audio track is extracted first")
	fs.StringSlice("native-audio-extensions", d.NativeAudioExtensions, "audio extensions uploaded without conversion")

	fs.String("temp-dir", d.TempDir, "directory for intermediate files (default: system temp dir)")
	fs.Int("clipboard-attempts", d.ClipboardAttempts, "attempts to open a busy clipboard")
	fs.Int("settle-delay-ms", d.SettleDelayMS, "pause before and after the simulated paste")
	fs.Int("key-delay-ms", d.KeyDelayMS, "pause between injected key events")

	fs.Bool("notification", d.Notification, "show desktop notifications")
	fs.String("log-format", d.LogFormat, "log format: auto|text|json")
	fs.String("log-level", d.LogLevel, "log level: debug|info|warn|error")
	fs.Bool("hotkey-debug", d.HotkeyDebug, "log raw hotkey events")
	fs.Bool("ffmpeg-debug", d.FFmpegDebug, "log ffmpeg/tesseract command lines")
	fs.Bool("upload-debug", d.UploadDebug, "log transcription requests and responses")
}

// Bind wires fs into v with the standard config file search order and
// OCR_PASTE_* env var prefix.
//
// Precedence (lowest -> highest): defaults -> config file -> env vars -> flags
func Bind(fs *pflag.FlagSet, v *viper.Viper) error {
	setDefaults(v)

	configFlag, _ := fs.GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "ocr-paste"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("openai-api-key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return fmt.Errorf("binding env: %w", err)
	}

	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// Load builds a validated Config from a bound viper instance.
func Load(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setDefaults registers DefaultConfig under its JSON keys so that values
// absent from flags, env and file still unmarshal to the defaults.
func setDefaults(v *viper.Viper) {
	b, err := json.Marshal(DefaultConfig())
	if err != nil {
		return
	}
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return
	}
	for k, val := range m {
		v.SetDefault(k, val)
	}
}
