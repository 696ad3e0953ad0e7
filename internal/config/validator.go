package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "board.fen_poll_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateServices()...)
	errors = append(errors, c.validateBoard()...)
	errors = append(errors, c.validateRecognition()...)
	errors = append(errors, c.validateAnalysis()...)
	errors = append(errors, c.validateStorage()...)
	errors = append(errors, c.validateLogging()...)
	return errors
}

func validateURL(field, raw string) []ValidationError {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return []ValidationError{{
			Field:   field,
			Value:   raw,
			Message: "must be an http(s) URL",
		}}
	}
	return nil
}

func positive(field string, v int) []ValidationError {
	if v <= 0 {
		return []ValidationError{{Field: field, Value: v, Message: "must be positive"}}
	}
	return nil
}

// validateServices validates the ServicesConfig
func (c *Config) validateServices() []ValidationError {
	var errors []ValidationError
	errors = append(errors, validateURL("services.base_url", c.Services.BaseURL)...)
	errors = append(errors, positive("services.timeout_ms", c.Services.TimeoutMs)...)

	if c.Services.RequestsPerSecond < 0 {
		errors = append(errors, ValidationError{
			Field:   "services.requests_per_second",
			Value:   c.Services.RequestsPerSecond,
			Message: "must be non-negative (0 disables the limit)",
		})
	}
	if c.Services.RecognitionCacheTTLSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "services.recognition_cache_ttl_seconds",
			Value:   c.Services.RecognitionCacheTTLSeconds,
			Message: "must be non-negative",
		})
	}
	return errors
}

// validateBoard validates the BoardConfig
func (c *Config) validateBoard() []ValidationError {
	var errors []ValidationError
	errors = append(errors, validateURL("board.base_url", c.Board.BaseURL)...)
	errors = append(errors, positive("board.timeout_ms", c.Board.TimeoutMs)...)
	errors = append(errors, positive("board.status_poll_ms", c.Board.StatusPollMs)...)

	// Polling the board faster than it can scan only produces duplicate reads
	const minFenPollMs = 100
	if c.Board.FenPollMs < minFenPollMs {
		errors = append(errors, ValidationError{
			Field:   "board.fen_poll_ms",
			Value:   c.Board.FenPollMs,
			Message: fmt.Sprintf("must be at least %d", minFenPollMs),
		})
	}
	return errors
}

func (c *Config) validateRecognition() []ValidationError {
	if c.Recognition.MinConfidence < 0 || c.Recognition.MinConfidence > 1 {
		return []ValidationError{{
			Field:   "recognition.min_confidence",
			Value:   c.Recognition.MinConfidence,
			Message: "must be between 0 and 1",
		}}
	}
	return nil
}

func (c *Config) validateAnalysis() []ValidationError {
	return positive("analysis.continuation_budget", c.Analysis.ContinuationBudget)
}

// validateStorage validates the StorageConfig
func (c *Config) validateStorage() []ValidationError {
	var errors []ValidationError
	if !slices.Contains(ValidStorageBackends(), c.Storage.Backend) {
		errors = append(errors, ValidationError{
			Field:   "storage.backend",
			Value:   c.Storage.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidStorageBackends(), ", ")),
		})
	}
	if c.Storage.Backend == "redis" && c.Storage.RedisAddr == "" {
		errors = append(errors, ValidationError{
			Field:   "storage.redis_addr",
			Value:   c.Storage.RedisAddr,
			Message: "is required for the redis backend",
		})
	}
	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	errors = append(errors, positive("logging.max_size_mb", c.Logging.MaxSizeMB)...)

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
