package asynclog

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/asynclog/formatter"
)

// Option customizes logger construction
type Option func(*options)

type options struct {
	clock       Clock
	systemLog   SystemLog
	diagnostics io.Writer
	console     io.Writer
}

// WithClock overrides the clock selected by the timezone setting
func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithSystemLog installs s as the system log instead of connecting to the platform one
func WithSystemLog(s SystemLog) Option {
	return func(o *options) { o.systemLog = s }
}

// WithDiagnosticsOutput redirects internal error reports away from standard error
func WithDiagnosticsOutput(w io.Writer) Option {
	return func(o *options) { o.diagnostics = w }
}

// WithConsoleWriter mirrors records to w, overriding console_target
func WithConsoleWriter(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// clockHolder keeps the atomic.Value type stable across Clock implementations
type clockHolder struct {
	Clock
}

// systemLogHolder wraps the active SystemLog for atomic swaps
type systemLogHolder struct {
	SystemLog
}

// core is the state every logger kind shares: level filter, formatter, sink
// registry, statistics, diagnostics and the maintenance timers. The concrete
// logger provides deliver, its unfiltered path into the backend.
type core struct {
	name      string
	config    atomic.Pointer[Config]
	configMu  sync.Mutex // Serializes reconfiguration
	filter    *LevelFilter
	formatter *formatter.Formatter
	clockVal  atomic.Value // stores clockHolder

	threadMu sync.RWMutex
	thread   string

	captureSource atomic.Bool
	withSource    bool // Always render the call site

	sinksMu sync.RWMutex
	sinks   []Sink
	self    Sink

	console   atomic.Pointer[consoleSink]
	systemLog atomic.Pointer[systemLogHolder]
	opts      options

	stats        Statistics
	queue        *TaskQueue[queuedRecord] // nil for loggers writing on the caller's goroutine
	diag         *diagnostics
	timers       *maintenance
	started      time.Time
	heartbeatSeq atomic.Uint64

	deliver func(Record) error
	flush   func() error
}

// newCore validates cfg and builds the shared state. The caller sets self,
// deliver and flush, then calls timers.start.
func newCore(name string, cfg *Config, opts []Option) (*core, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, fmtErrorf("invalid configuration: %w", err)
	}
	cfg = cfg.Clone()
	if name == "" {
		name = cfg.Name
	}

	c := &core{
		name:      name,
		filter:    NewLevelFilter(cfg.level()),
		formatter: formatter.New(),
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(&c.opts)
	}

	c.diag = newDiagnostics(cfg.InternalErrorsToStderr, int(cfg.InternalErrorRate), c.opts.diagnostics)
	c.timers = newMaintenance(c.autoFlush, c.heartbeat)

	if err := c.applyConfig(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// applyConfig installs the live parts of cfg
func (c *core) applyConfig(cfg *Config) error {
	c.configMu.Lock()
	defer c.configMu.Unlock()

	c.filter.Set(cfg.level())

	c.formatter.Type(cfg.Format).TimestampFormat(cfg.TimestampFormat)
	if err := c.formatter.SetPattern(cfg.Pattern); err != nil {
		c.diag.internalLog("logger '%s': %v, records use fallback formatting", c.name, err)
	}

	clock := c.opts.clock
	if clock == nil {
		var err error
		if clock, err = ClockFor(cfg.Timezone); err != nil {
			return err
		}
	}
	c.clockVal.Store(clockHolder{clock})

	c.SetThreadName(cfg.ThreadName)
	c.captureSource.Store(cfg.CaptureSource)
	c.diag.enabled.Store(cfg.InternalErrorsToStderr)

	if c.queue != nil {
		c.queue.SetCapacity(int(cfg.QueueCapacity))
	}

	switch {
	case c.opts.console != nil && cfg.EnableConsole:
		c.console.Store(&consoleSink{w: c.opts.console})
	case cfg.EnableConsole:
		var w io.Writer = os.Stderr
		if cfg.ConsoleTarget == "stdout" {
			w = os.Stdout
		}
		c.console.Store(&consoleSink{w: w})
	default:
		c.console.Store(nil)
	}

	prev := c.config.Swap(cfg)
	if prev == nil || prev.EnableSystemLog != cfg.EnableSystemLog || prev.SystemLogTag != cfg.SystemLogTag {
		if err := c.enableSystemLogging(cfg.EnableSystemLog, cfg.SystemLogTag); err != nil {
			c.diag.internalLog("logger '%s': %v", c.name, err)
		}
	}

	c.timers.configure(cfg.autoFlushInterval(), cfg.heartbeatInterval())
	return nil
}

// getConfig returns the current configuration
func (c *core) getConfig() *Config {
	return c.config.Load()
}

// updateConfig stores a modified copy of the current configuration
func (c *core) updateConfig(modify func(cfg *Config)) {
	c.configMu.Lock()
	defer c.configMu.Unlock()
	cfg := c.getConfig().Clone()
	modify(cfg)
	c.config.Store(cfg)
}

// GetConfig returns a copy of current configuration
func (c *core) GetConfig() *Config {
	return c.getConfig().Clone()
}

// Name returns the logger name
func (c *core) Name() string {
	return c.name
}

// now reads the configured clock
func (c *core) now() time.Time {
	return c.clockVal.Load().(clockHolder).Now()
}

// SetLevel changes the minimum level for records entering this logger
func (c *core) SetLevel(level Level) {
	c.filter.Set(level)
	c.updateConfig(func(cfg *Config) { cfg.Level = strings.ToLower(level.String()) })
}

// Level returns the minimum level
func (c *core) Level() Level {
	return c.filter.Level()
}

// ShouldLog reports whether a record at level would be accepted
func (c *core) ShouldLog(level Level) bool {
	return c.filter.Allows(level)
}

// SetThreadName changes the label rendered in the thread field
func (c *core) SetThreadName(name string) {
	c.threadMu.Lock()
	c.thread = name
	c.threadMu.Unlock()
}

// ThreadName returns the current thread label
func (c *core) ThreadName() string {
	c.threadMu.RLock()
	defer c.threadMu.RUnlock()
	return c.thread
}

// SetPattern installs a txt output pattern. An invalid pattern is installed
// anyway and every record falls back to a marked default layout until a
// valid one is set; the compile error is returned.
func (c *core) SetPattern(pattern string) error {
	err := c.formatter.SetPattern(pattern)
	c.updateConfig(func(cfg *Config) { cfg.Pattern = pattern })
	if err != nil {
		c.diag.internalLog("logger '%s': %v, records use fallback formatting", c.name, err)
	}
	return err
}

// SetCaptureSource toggles call-site capture for convenience calls
func (c *core) SetCaptureSource(enable bool) {
	c.captureSource.Store(enable)
}

// SetAutoFlushInterval changes the periodic flush interval, 0 disables it
func (c *core) SetAutoFlushInterval(d time.Duration) {
	c.updateConfig(func(cfg *Config) { cfg.AutoFlushIntervalMs = d.Milliseconds() })
	cfg := c.getConfig()
	c.timers.configure(d, cfg.heartbeatInterval())
}

// SetConsoleWriter mirrors every written record to w; nil disables the mirror
func (c *core) SetConsoleWriter(w io.Writer) {
	if w == nil {
		c.console.Store(nil)
		return
	}
	c.console.Store(&consoleSink{w: w})
}

// EnableSystemLogging connects to or disconnects from the platform system log
func (c *core) EnableSystemLogging(enable bool) error {
	c.updateConfig(func(cfg *Config) { cfg.EnableSystemLog = enable })
	return c.enableSystemLogging(enable, c.getConfig().SystemLogTag)
}

func (c *core) enableSystemLogging(enable bool, tag string) error {
	if !enable {
		c.SetSystemLog(nil)
		return nil
	}
	if c.systemLog.Load() != nil {
		return nil
	}
	s := c.opts.systemLog
	if s == nil {
		var err error
		if s, err = NewSystemLog(tag); err != nil {
			return err
		}
	}
	c.SetSystemLog(s)
	return nil
}

// SetSystemLog replaces the system log, closing the previous one; nil disables it
func (c *core) SetSystemLog(s SystemLog) {
	var next *systemLogHolder
	if s != nil {
		next = &systemLogHolder{s}
	}
	if prev := c.systemLog.Swap(next); prev != nil && (next == nil || prev.SystemLog != next.SystemLog) {
		if err := prev.Close(); err != nil {
			c.diag.internalLog("logger '%s': failed to close system log: %v", c.name, err)
		}
	}
}

// Statistics returns a snapshot of the logger's counters
func (c *core) Statistics() StatsSnapshot {
	return c.stats.snapshot(c.queue)
}

// StatisticsJSON renders Statistics as JSON
func (c *core) StatisticsJSON() ([]byte, error) {
	return c.Statistics().JSON()
}

// afterWrite runs the secondary outputs of a record the backend accepted
func (c *core) afterWrite(rec Record, data []byte) {
	if cs := c.console.Load(); cs != nil {
		if err := cs.write(data); err != nil {
			c.diag.internalLog("logger '%s': console write failed: %v", c.name, err)
		}
	}
	if sl := c.systemLog.Load(); sl != nil {
		if err := sl.Emit(rec.Level, strings.TrimRight(string(data), "\n")); err != nil {
			c.diag.internalLog("logger '%s': system log write failed: %v", c.name, err)
		}
	}
	c.fanout(rec)
}

// writeFailed accounts a record the backend rejected
func (c *core) writeFailed(err error) {
	c.stats.recordError()
	c.diag.internalLog("logger '%s': write failed: %v", c.name, err)
}

// stopCommon halts the timers and releases the system log
func (c *core) stopCommon() {
	c.timers.halt()
	c.SetSystemLog(nil)
}

// autoFlush is the periodic flush tick
func (c *core) autoFlush() {
	if c.flush == nil {
		return
	}
	if err := c.flush(); err != nil {
		c.diag.internalLog("logger '%s': periodic flush failed: %v", c.name, err)
	}
}
