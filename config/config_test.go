package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Slideshow.IntervalSeconds)
	assert.Equal(t, "oldest-first", cfg.Slideshow.Direction)
	assert.Equal(t, "stop-and-notify", cfg.Slideshow.OnEnd)
	assert.Equal(t, "fullsize", cfg.Slideshow.ThumbnailSize)
	assert.Equal(t, 10, cfg.Slideshow.CacheCount)
	assert.Equal(t, 5, cfg.Slideshow.VideoStartTimeoutSeconds)
	assert.Equal(t, "mpv", cfg.Slideshow.VideoPlayer)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, cfg.Logging.Color)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  url: https://photos.example.com
  auth_method: apiKey
  api_key: secret

slideshow:
  interval: 12
  direction: newest-first
  on_end: restart
  thumbnail_size: preview

logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://photos.example.com", cfg.Server.URL)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, 12, cfg.Slideshow.IntervalSeconds)
	assert.Equal(t, "newest-first", cfg.Slideshow.Direction)
	assert.Equal(t, "restart", cfg.Slideshow.OnEnd)
	assert.Equal(t, "preview", cfg.Slideshow.ThumbnailSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	// No explicit path and no config file in the search path still yields a
	// valid default configuration.
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Slideshow.IntervalSeconds)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Slideshow: SlideshowConfig{
				IntervalSeconds: 5,
				Direction:       "oldest-first",
				OnEnd:           "stop-and-notify",
				ThumbnailSize:   "fullsize",
			},
			Logging: LoggingConfig{Level: "info", Format: "console"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "interval too small",
			mutate:  func(cfg *Config) { cfg.Slideshow.IntervalSeconds = 0 },
			wantErr: "slideshow.interval",
		},
		{
			name:    "bad direction",
			mutate:  func(cfg *Config) { cfg.Slideshow.Direction = "sideways" },
			wantErr: "slideshow.direction",
		},
		{
			name:    "bad on_end",
			mutate:  func(cfg *Config) { cfg.Slideshow.OnEnd = "explode" },
			wantErr: "slideshow.on_end",
		},
		{
			name:    "bad thumbnail size",
			mutate:  func(cfg *Config) { cfg.Slideshow.ThumbnailSize = "huge" },
			wantErr: "slideshow.thumbnail_size",
		},
		{
			name:    "bad log level",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "verbose" },
			wantErr: "logging level",
		},
		{
			name:    "bad log format",
			mutate:  func(cfg *Config) { cfg.Logging.Format = "xml" },
			wantErr: "logging format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := validate(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
