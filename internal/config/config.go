package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config represents the complete chessbook configuration
type Config struct {
	Services    ServicesConfig    `mapstructure:"services" yaml:"services"`
	Board       BoardConfig       `mapstructure:"board" yaml:"board"`
	Recognition RecognitionConfig `mapstructure:"recognition" yaml:"recognition"`
	Analysis    AnalysisConfig    `mapstructure:"analysis" yaml:"analysis"`
	Storage     StorageConfig     `mapstructure:"storage" yaml:"storage"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
	TUI         TUIConfig         `mapstructure:"tui" yaml:"tui"`
}

// ServicesConfig points at the PDF, recognition and extraction backend
type ServicesConfig struct {
	// BaseURL is the root of the HTTP API (default: http://localhost:5000)
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// TimeoutMs bounds every request
	TimeoutMs int `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	// RequestsPerSecond limits outbound calls (0 = unlimited)
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	// RecognitionCacheTTLSeconds keeps recognition results for repeated
	// selections of the same diagram (0 = no cache)
	RecognitionCacheTTLSeconds int `mapstructure:"recognition_cache_ttl_seconds" yaml:"recognition_cache_ttl_seconds"`
}

// BoardConfig controls the physical board bridge
type BoardConfig struct {
	// BaseURL is the board service root (default: http://localhost:8675)
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutMs int    `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	// StatusPollMs is how often the board's availability is checked
	StatusPollMs int `mapstructure:"status_poll_ms" yaml:"status_poll_ms"`
	// FenPollMs is how often the board position is read while listening
	FenPollMs int `mapstructure:"fen_poll_ms" yaml:"fen_poll_ms"`
	// AutoSync starts the TUI with hardware sync turned on
	AutoSync bool `mapstructure:"auto_sync" yaml:"auto_sync"`
}

// RecognitionConfig controls how recognition results are treated
type RecognitionConfig struct {
	// MinConfidence below which the user is warned to check the pieces
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
}

// AnalysisConfig controls continuation search
type AnalysisConfig struct {
	// ContinuationBudget caps the nodes visited per analysis tree
	ContinuationBudget int `mapstructure:"continuation_budget" yaml:"continuation_budget"`
}

// StorageConfig selects where studies are kept
type StorageConfig struct {
	// Backend is one of "badger", "redis" or "remote"
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path is the badger directory (empty = <config dir>/studies)
	Path        string `mapstructure:"path" yaml:"path"`
	RedisAddr   string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
}

// LoggingConfig controls debug logging
type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Level   string `mapstructure:"level" yaml:"level"`
	// Dir receives chessbook.log (empty = stderr)
	Dir        string `mapstructure:"dir" yaml:"dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	// Addr to serve /metrics on (empty disables)
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// TUIConfig controls the terminal UI
type TUIConfig struct {
	UnicodePieces bool `mapstructure:"unicode_pieces" yaml:"unicode_pieces"`
	FlipBoard     bool `mapstructure:"flip_board" yaml:"flip_board"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Services: ServicesConfig{
			BaseURL:                    "http://localhost:5000",
			TimeoutMs:                  30000,
			RequestsPerSecond:          10,
			RecognitionCacheTTLSeconds: 600,
		},
		Board: BoardConfig{
			BaseURL:      "http://localhost:8675",
			TimeoutMs:    2000,
			StatusPollMs: 5000,
			FenPollMs:    500,
			AutoSync:     false,
		},
		Recognition: RecognitionConfig{
			MinConfidence: 0.85,
		},
		Analysis: AnalysisConfig{
			ContinuationBudget: 1000,
		},
		Storage: StorageConfig{
			Backend:     "badger",
			Path:        "", // Empty means <config dir>/studies
			RedisAddr:   "localhost:6379",
			RedisPrefix: "chessbook:study:",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   true,
		},
		TUI: TUIConfig{
			UnicodePieces: true,
		},
	}
}

// Timeout returns the request timeout as a time.Duration
func (c *ServicesConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// RecognitionCacheTTL returns the cache TTL (0 means disabled)
func (c *ServicesConfig) RecognitionCacheTTL() time.Duration {
	return time.Duration(c.RecognitionCacheTTLSeconds) * time.Second
}

// Timeout returns the board request timeout as a time.Duration
func (c *BoardConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// StatusPoll returns the status poll interval
func (c *BoardConfig) StatusPoll() time.Duration {
	return time.Duration(c.StatusPollMs) * time.Millisecond
}

// FenPoll returns the position poll interval
func (c *BoardConfig) FenPoll() time.Duration {
	return time.Duration(c.FenPollMs) * time.Millisecond
}

// StoragePath returns the badger directory, resolving the default
func (c *StorageConfig) StoragePath() string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(ConfigDir(), "studies")
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Services defaults
	viper.SetDefault("services.base_url", defaults.Services.BaseURL)
	viper.SetDefault("services.timeout_ms", defaults.Services.TimeoutMs)
	viper.SetDefault("services.requests_per_second", defaults.Services.RequestsPerSecond)
	viper.SetDefault("services.recognition_cache_ttl_seconds", defaults.Services.RecognitionCacheTTLSeconds)

	// Board defaults
	viper.SetDefault("board.base_url", defaults.Board.BaseURL)
	viper.SetDefault("board.timeout_ms", defaults.Board.TimeoutMs)
	viper.SetDefault("board.status_poll_ms", defaults.Board.StatusPollMs)
	viper.SetDefault("board.fen_poll_ms", defaults.Board.FenPollMs)
	viper.SetDefault("board.auto_sync", defaults.Board.AutoSync)

	viper.SetDefault("recognition.min_confidence", defaults.Recognition.MinConfidence)
	viper.SetDefault("analysis.continuation_budget", defaults.Analysis.ContinuationBudget)

	// Storage defaults
	viper.SetDefault("storage.backend", defaults.Storage.Backend)
	viper.SetDefault("storage.path", defaults.Storage.Path)
	viper.SetDefault("storage.redis_addr", defaults.Storage.RedisAddr)
	viper.SetDefault("storage.redis_prefix", defaults.Storage.RedisPrefix)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	viper.SetDefault("metrics.addr", defaults.Metrics.Addr)

	viper.SetDefault("tui.unicode_pieces", defaults.TUI.UnicodePieces)
	viper.SetDefault("tui.flip_board", defaults.TUI.FlipBoard)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// Watch reloads the configuration whenever the config file changes and
// passes each valid result to fn. Invalid edits are reported through
// onError and the previous configuration stays in effect.
func Watch(fn func(*Config), onError func(error)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		fn(cfg)
	})
	viper.WatchConfig()
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "chessbook")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chessbook"
	}
	return filepath.Join(home, ".config", "chessbook")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidStorageBackends returns the list of valid storage backends
func ValidStorageBackends() []string {
	return []string{"badger", "redis", "remote"}
}
