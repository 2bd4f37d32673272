package asynclog

import (
	"strings"
)

// Builder provides a fluent API for building logger configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg  *Config
	opts []Option
	err  error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Config returns the built configuration after validation
func (b *Builder) Config() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.cfg.validate(); err != nil {
		return nil, err
	}
	return b.cfg.Clone(), nil
}

// BuildSync creates a SyncLogger with the built configuration.
func (b *Builder) BuildSync() (*SyncLogger, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return NewSyncLogger(cfg, b.opts...)
}

// BuildAsync creates an AsyncLogger with the built configuration.
func (b *Builder) BuildAsync() (*AsyncLogger, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return NewAsyncLogger(cfg, b.opts...)
}

// BuildMmap creates a MmapLogger with the built configuration.
func (b *Builder) BuildMmap() (*MmapLogger, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return NewMmapLogger(cfg, b.opts...)
}

// Level sets the minimum level.
func (b *Builder) Level(level Level) *Builder {
	b.cfg.Level = strings.ToLower(level.String())
	return b
}

// LevelString sets the minimum level from a string.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := ParseLevel(level); err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = level
	return b
}

// Name sets the logger name, also the base name of its file.
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// Directory sets the log directory.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.Directory = dir
	return b
}

// Format sets the output format.
func (b *Builder) Format(format string) *Builder {
	b.cfg.Format = format
	return b
}

// Extension sets the file extension, without the dot.
func (b *Builder) Extension(ext string) *Builder {
	b.cfg.Extension = ext
	return b
}

// Pattern sets the txt output pattern.
func (b *Builder) Pattern(pattern string) *Builder {
	b.cfg.Pattern = pattern
	return b
}

// TimestampFormat sets the time layout of the timestamp field.
func (b *Builder) TimestampFormat(layout string) *Builder {
	b.cfg.TimestampFormat = layout
	return b
}

// Timezone selects the record clock: "local", "utc", "china" or an IANA name.
func (b *Builder) Timezone(zone string) *Builder {
	b.cfg.Timezone = zone
	return b
}

// ThreadName sets the label rendered in the thread field.
func (b *Builder) ThreadName(name string) *Builder {
	b.cfg.ThreadName = name
	return b
}

// CaptureSource records the call site of convenience calls.
func (b *Builder) CaptureSource(enable bool) *Builder {
	b.cfg.CaptureSource = enable
	return b
}

// MaxSizeKB sets the maximum log file size in KB.
func (b *Builder) MaxSizeKB(size int64) *Builder {
	b.cfg.MaxSizeKB = size
	return b
}

// MaxSizeMB sets the maximum log file size in MB. Convenience.
func (b *Builder) MaxSizeMB(size int64) *Builder {
	b.cfg.MaxSizeKB = size * sizeMultiplier
	return b
}

// MaxFiles sets the number of rotated files kept.
func (b *Builder) MaxFiles(n int64) *Builder {
	b.cfg.MaxFiles = n
	return b
}

// FlushEveryWrite flushes the file buffer after each record.
func (b *Builder) FlushEveryWrite(enable bool) *Builder {
	b.cfg.FlushEveryWrite = enable
	return b
}

// QueueCapacity sets the async admission limit.
func (b *Builder) QueueCapacity(capacity int64) *Builder {
	b.cfg.QueueCapacity = capacity
	return b
}

// Workers sets the number of async workers.
func (b *Builder) Workers(n int64) *Builder {
	b.cfg.Workers = n
	return b
}

// AutoFlushIntervalMs sets the periodic flush interval, 0 disables it.
func (b *Builder) AutoFlushIntervalMs(ms int64) *Builder {
	b.cfg.AutoFlushIntervalMs = ms
	return b
}

// HeartbeatIntervalS sets the statistics heartbeat interval, 0 disables it.
func (b *Builder) HeartbeatIntervalS(interval int64) *Builder {
	b.cfg.HeartbeatIntervalS = interval
	return b
}

// MmapSizeKB sets the memory-mapped region size.
func (b *Builder) MmapSizeKB(size int64) *Builder {
	b.cfg.MmapSizeKB = size
	return b
}

// EnableConsole enables mirroring logs to stdout/stderr.
func (b *Builder) EnableConsole(enable bool) *Builder {
	b.cfg.EnableConsole = enable
	return b
}

// EnableSystemLog forwards records to the platform system log.
func (b *Builder) EnableSystemLog(enable bool) *Builder {
	b.cfg.EnableSystemLog = enable
	return b
}

// InternalErrorsToStderr toggles the internal diagnostics channel.
func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}

// With adds construction options.
func (b *Builder) With(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Example usage:
// logger, err := asynclog.NewBuilder().
//
//	Directory("/var/log/app").
//	LevelString("debug").
//	Format("json").
//	QueueCapacity(4096).
//	EnableConsole(true).
//	BuildAsync()
//
// if err == nil {
//
//	 defer logger.Shutdown(time.Second)
//	 logger.Info("Logger initialized successfully")
//	}
