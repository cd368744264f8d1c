package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(&cfg))
	assert.Equal(t, int64(26214400), cfg.MaxUploadBytes)
	assert.False(t, cfg.TranscriptionEnabled())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"bad trigger":   func(c *Config) { c.TriggerKey = "hyper+x" },
		"no lang":       func(c *Config) { c.Lang = "" },
		"bad endpoint":  func(c *Config) { c.APIEndpoint = "not a url" },
		"zero attempts": func(c *Config) { c.ClipboardAttempts = 0 },
		"no audio":      func(c *Config) { c.AudioExtensions = nil },
		"overlap":       func(c *Config) { c.VideoExtensions = append(c.VideoExtensions, "MP3") },
		"log format":    func(c *Config) { c.LogFormat = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, Validate(&cfg))
		})
	}
}

func TestNormalize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AudioExtensions = []string{".WAV", " Mp3", ""}
	cfg.APIKey = "  sk-test \n"
	Normalize(&cfg)
	assert.Equal(t, []string{"wav", "mp3"}, cfg.AudioExtensions)
	assert.Equal(t, "sk-test", cfg.APIKey)
}

func TestSnapshotIsDeep(t *testing.T) {
	cfg := DefaultConfig()
	snap := cfg.Snapshot()
	cfg.AudioExtensions[0] = "changed"
	assert.NotEqual(t, "changed", snap.AudioExtensions[0])
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "150ms", cfg.SettleDelay().String())
	assert.Equal(t, "30ms", cfg.KeyDelay().String())
	assert.Equal(t, "2m0s", cfg.Timeout().String())
}

func load(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	v := viper.New()
	require.NoError(t, Bind(fs, v))
	return Load(v)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"lang":"deu","trigger-key":"f8","model":"from-file"}`), 0o644))

	t.Setenv("OCR_PASTE_MODEL", "from-env")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := load(t, "--config", path, "--trigger-key", "ctrl+f7")
	require.NoError(t, err)
	assert.Equal(t, "deu", cfg.Lang)
	assert.Equal(t, "from-env", cfg.Model)
	assert.Equal(t, "ctrl+f7", cfg.TriggerKey)
	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.True(t, cfg.TranscriptionEnabled())
	assert.Equal(t, 10, cfg.ClipboardAttempts)
	assert.Equal(t, int64(26214400), cfg.MaxUploadBytes)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"trigger-key":"nope+x"}`), 0o644))
	_, err := load(t, "--config", path)
	assert.Error(t, err)
}

func TestSaveDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, SaveDefault(path))
	cfg, err := load(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().VideoExtensions, cfg.VideoExtensions)
}

func TestLoadDotEnv(t *testing.T) {
	ok, err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.False(t, ok)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OCR_PASTE_DOTENV_PROBE=yes\n"), 0o644))
	t.Setenv("OCR_PASTE_DOTENV_PROBE", "")
	os.Unsetenv("OCR_PASTE_DOTENV_PROBE")
	ok, err = LoadDotEnv(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "yes", os.Getenv("OCR_PASTE_DOTENV_PROBE"))
}
