package config

// Config represents the complete configuration structure
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Slideshow SlideshowConfig `mapstructure:"slideshow"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig optionally seeds the credential store from the config file.
// Values saved through `immichshow login` take precedence.
type ServerConfig struct {
	URL        string `mapstructure:"url"`
	AuthMethod string `mapstructure:"auth_method"`
	APIKey     string `mapstructure:"api_key"`
	Email      string `mapstructure:"email"`
	Password   string `mapstructure:"password"`
}

// SlideshowConfig contains playback settings
type SlideshowConfig struct {
	// IntervalSeconds is the per-image display time during autoplay.
	IntervalSeconds int `mapstructure:"interval"`

	// Direction is oldest-first or newest-first.
	Direction string `mapstructure:"direction"`

	// OnEnd is stop-and-notify or restart.
	OnEnd string `mapstructure:"on_end"`

	// ThumbnailSize is preview or fullsize.
	ThumbnailSize string `mapstructure:"thumbnail_size"`

	// CacheCount and CacheMegabytes bound the media cache.
	CacheCount     int `mapstructure:"cache_count"`
	CacheMegabytes int `mapstructure:"cache_megabytes"`

	// VideoStartTimeoutSeconds bounds the playback-start check. This is a
	// heuristic; see the slideshow package.
	VideoStartTimeoutSeconds int `mapstructure:"video_start_timeout"`

	// VideoPlayer is the external player command, e.g. "mpv".
	VideoPlayer string `mapstructure:"video_player"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
