package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Load loads the configuration from file. A missing config file is not an
// error: the defaults describe a usable setup once credentials exist.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".immichshow"))
		}
		v.AddConfigPath("/etc/immichshow/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Slideshow defaults
	v.SetDefault("slideshow.interval", 5)
	v.SetDefault("slideshow.direction", "oldest-first")
	v.SetDefault("slideshow.on_end", "stop-and-notify")
	v.SetDefault("slideshow.thumbnail_size", "fullsize")
	v.SetDefault("slideshow.cache_count", 10)
	v.SetDefault("slideshow.video_start_timeout", 5)
	v.SetDefault("slideshow.video_player", "mpv")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Slideshow.IntervalSeconds < 1 {
		return fmt.Errorf("slideshow.interval must be at least 1 second")
	}

	validDirections := map[string]bool{
		"oldest-first": true,
		"newest-first": true,
	}
	if !validDirections[cfg.Slideshow.Direction] {
		return fmt.Errorf("invalid slideshow.direction: %s", cfg.Slideshow.Direction)
	}

	validOnEnd := map[string]bool{
		"stop-and-notify": true,
		"restart":         true,
	}
	if !validOnEnd[cfg.Slideshow.OnEnd] {
		return fmt.Errorf("invalid slideshow.on_end: %s", cfg.Slideshow.OnEnd)
	}

	validSizes := map[string]bool{
		"preview":  true,
		"fullsize": true,
	}
	if !validSizes[cfg.Slideshow.ThumbnailSize] {
		return fmt.Errorf("invalid slideshow.thumbnail_size: %s", cfg.Slideshow.ThumbnailSize)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
