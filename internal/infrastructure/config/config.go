package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Desktop   DesktopConfig
	Session   SessionConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string   `envconfig:"PORT" default:"8000"`
	Host           string   `envconfig:"HOST" default:"0.0.0.0"`
	AllowedOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	Global            bool `envconfig:"RATE_LIMIT_GLOBAL" default:"false"`
}

// DesktopConfig holds window manager and location sync settings.
type DesktopConfig struct {
	ViewportWidth      int    `envconfig:"VIEWPORT_WIDTH" default:"1920"`
	ViewportHeight     int    `envconfig:"VIEWPORT_HEIGHT" default:"1080"`
	TaskbarHeight      int    `envconfig:"TASKBAR_HEIGHT" default:"48"`
	ManifestsDir       string `envconfig:"MANIFESTS_DIR" default:""`
	RestoreMaxAttempts int    `envconfig:"RESTORE_MAX_ATTEMPTS" default:"3"`
	EventHistorySize   int    `envconfig:"EVENT_HISTORY_SIZE" default:"100"`
}

// SessionConfig holds window position preference settings.
type SessionConfig struct {
	PrefsPath        string        `envconfig:"PREFS_PATH" default:""`
	AutoSaveInterval time.Duration `envconfig:"AUTOSAVE_INTERVAL" default:"30s"`
	Compress         bool          `envconfig:"PREFS_COMPRESS" default:"false"`
	RedisURL         string        `envconfig:"PREFS_REDIS_URL" default:""`
	RedisKey         string        `envconfig:"PREFS_REDIS_KEY" default:"webdesk:preferences"`
	RedisTTL         time.Duration `envconfig:"PREFS_REDIS_TTL" default:"720h"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects settings the desktop cannot run with.
func (c *Config) Validate() error {
	d := c.Desktop
	if d.ViewportWidth <= 0 || d.ViewportHeight <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", d.ViewportWidth, d.ViewportHeight)
	}
	if d.TaskbarHeight < 0 || d.TaskbarHeight >= d.ViewportHeight {
		return fmt.Errorf("invalid taskbar height %d", d.TaskbarHeight)
	}
	if c.Session.AutoSaveInterval <= 0 {
		return fmt.Errorf("invalid autosave interval %s", c.Session.AutoSaveInterval)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Desktop: DesktopConfig{
			ViewportWidth:      1920,
			ViewportHeight:     1080,
			TaskbarHeight:      48,
			RestoreMaxAttempts: 3,
			EventHistorySize:   100,
		},
		Session: SessionConfig{
			AutoSaveInterval: 30 * time.Second,
			RedisKey:         "webdesk:preferences",
			RedisTTL:         720 * time.Hour,
		},
	}
}
