package asynclog

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/lixenwraith/config"

	"github.com/lixenwraith/asynclog/formatter"
)

// Config holds all logger configuration values
type Config struct {
	// Basic settings
	Level     string `toml:"level"` // trace, debug, info, warn, error, critical, off
	Name      string `toml:"name"`  // Base name for log files
	Directory string `toml:"directory"`
	Extension string `toml:"extension"`
	Format    string `toml:"format"` // "txt", "raw", or "json"

	// Formatting
	Pattern         string `toml:"pattern"`          // Positional txt pattern, see formatter.DefaultPattern
	TimestampFormat string `toml:"timestamp_format"` // Time format for log timestamps
	Timezone        string `toml:"timezone"`         // "local", "utc", "china" or an IANA zone name
	ThreadName      string `toml:"thread_name"`      // Label rendered in the thread field
	CaptureSource   bool   `toml:"capture_source"`   // Record the call site of convenience calls

	// File backend
	MaxSizeKB       int64 `toml:"max_size_kb"`       // Rotation threshold, 0 disables rotation
	MaxFiles        int64 `toml:"max_files"`         // Retained history files
	FlushEveryWrite bool  `toml:"flush_every_write"` // Flush after each record instead of batching
	SyncOnFlush     bool  `toml:"sync_on_flush"`     // fsync on every flush

	// Async pipeline
	QueueCapacity       int64 `toml:"queue_capacity"`         // Admission limit for non-critical records
	Workers             int64 `toml:"workers"`                // Consumer goroutines
	WorkerIdleMs        int64 `toml:"worker_idle_ms"`         // Idle wait before a worker re-checks the queue
	AutoFlushIntervalMs int64 `toml:"auto_flush_interval_ms"` // Periodic flush, 0 disables
	HeartbeatIntervalS  int64 `toml:"heartbeat_interval_s"`   // Statistics heartbeat, 0 disables

	// Memory-mapped backend
	MmapSizeKB int64 `toml:"mmap_size_kb"` // Region size, rounded up to whole pages

	// Console output settings
	EnableConsole bool   `toml:"enable_console"` // Mirror records to stdout/stderr
	ConsoleTarget string `toml:"console_target"` // "stdout" or "stderr"

	// System log
	EnableSystemLog bool   `toml:"enable_system_log"` // Forward records to the platform system log
	SystemLogTag    string `toml:"system_log_tag"`

	// Internal error handling
	InternalErrorsToStderr bool  `toml:"internal_errors_to_stderr"` // Write internal errors to stderr
	InternalErrorRate      int64 `toml:"internal_error_rate"`       // Max internal error lines per second
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	// Basic settings
	Level:     "info",
	Name:      "log",
	Directory: "./logs",
	Extension: "log",
	Format:    "txt",

	// Formatting
	Pattern:         formatter.DefaultPattern,
	TimestampFormat: "2006-01-02 15:04:05.000",
	Timezone:        "local",
	ThreadName:      "main",
	CaptureSource:   false,

	// File backend
	MaxSizeKB:       10 * 1024,
	MaxFiles:        5,
	FlushEveryWrite: false,
	SyncOnFlush:     false,

	// Async pipeline
	QueueCapacity:       8192,
	Workers:             1,
	WorkerIdleMs:        100,
	AutoFlushIntervalMs: 1000,
	HeartbeatIntervalS:  0,

	// Memory-mapped backend
	MmapSizeKB: 4 * 1024,

	// Console settings
	EnableConsole: false,
	ConsoleTarget: "stderr",

	// System log
	EnableSystemLog: false,
	SystemLogTag:    "asynclog",

	// Internal error handling
	InternalErrorsToStderr: true,
	InternalErrorRate:      10,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	// Create a copy to prevent modifications to the original
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Use lixenwraith/config as a loader
	loader := config.New()

	// Register the struct to enable proper unmarshaling
	if err := loader.RegisterStruct("log.", *cfg); err != nil {
		return nil, fmt.Errorf("failed to register config struct: %w", err)
	}

	// Load from file (handles file not found gracefully)
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	// Extract values into our Config struct
	if err := extractConfig(loader, "log.", cfg); err != nil {
		return nil, fmt.Errorf("failed to extract config values: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	// Apply overrides using reflection
	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmt.Errorf("failed to apply overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractConfig extracts values from lixenwraith/config into our Config struct
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue // Use default value
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// configFields maps toml keys to the addressable fields of cfg
func configFields(cfg *Config) map[string]reflect.Value {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	fields := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("toml"); tag != "" {
			fields[tag] = v.Field(i)
		}
	}
	return fields
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	fields := configFields(cfg)
	for key, value := range overrides {
		fieldValue, exists := fields[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("expected integer, got %v", v)
			}
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// validate performs validation on the configuration. The txt pattern is not
// checked here: an invalid pattern degrades output instead of failing.
func (c *Config) validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}

	if strings.TrimSpace(c.Name) == "" {
		return fmtErrorf("log name cannot be empty")
	}

	if c.Format != formatter.TypeTxt && c.Format != formatter.TypeJSON && c.Format != formatter.TypeRaw {
		return fmtErrorf("invalid format: '%s' (use txt, json, or raw)", c.Format)
	}

	if strings.HasPrefix(c.Extension, ".") {
		return fmtErrorf("extension should not start with dot: %s", c.Extension)
	}

	if strings.TrimSpace(c.TimestampFormat) == "" {
		return fmtErrorf("timestamp_format cannot be empty")
	}

	if _, err := ClockFor(c.Timezone); err != nil {
		return err
	}

	if c.ConsoleTarget != "stdout" && c.ConsoleTarget != "stderr" {
		return fmtErrorf("invalid console_target: '%s' (use stdout or stderr)", c.ConsoleTarget)
	}

	// Numeric validations
	if c.MaxSizeKB < 0 || c.MaxFiles < 0 {
		return fmtErrorf("max_size_kb and max_files cannot be negative")
	}

	if c.QueueCapacity <= 0 {
		return fmtErrorf("queue_capacity must be positive: %d", c.QueueCapacity)
	}

	if c.Workers <= 0 {
		return fmtErrorf("workers must be positive: %d", c.Workers)
	}

	if c.WorkerIdleMs < 0 || c.AutoFlushIntervalMs < 0 || c.HeartbeatIntervalS < 0 {
		return fmtErrorf("interval settings cannot be negative")
	}

	if c.MmapSizeKB <= 0 {
		return fmtErrorf("mmap_size_kb must be positive: %d", c.MmapSizeKB)
	}

	if c.InternalErrorRate <= 0 {
		return fmtErrorf("internal_error_rate must be positive: %d", c.InternalErrorRate)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// LogPath returns the live file path derived from directory, name and extension
func (c *Config) LogPath() string {
	name := c.Name
	if c.Extension != "" {
		name += "." + c.Extension
	}
	return filepath.Join(c.Directory, name)
}

// level returns the parsed level, LevelInfo when unparsable
func (c *Config) level() Level {
	lv, err := ParseLevel(c.Level)
	if err != nil {
		return LevelInfo
	}
	return lv
}

func (c *Config) workerIdle() time.Duration {
	if c.WorkerIdleMs <= 0 {
		return defaultWorkerIdle
	}
	return time.Duration(c.WorkerIdleMs) * time.Millisecond
}

func (c *Config) autoFlushInterval() time.Duration {
	return time.Duration(c.AutoFlushIntervalMs) * time.Millisecond
}

func (c *Config) heartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalS) * time.Second
}
