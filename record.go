package asynclog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/lixenwraith/asynclog/formatter"
)

// newRecord stamps a record with the logger's clock and thread label
func (c *core) newRecord(level Level, msg string, loc *SourceLocation) Record {
	return Record{
		Level:   level,
		Message: msg,
		Source:  loc,
		Time:    c.now(),
		Thread:  c.ThreadName(),
	}
}

// render formats a record for the backend; a known call site is always rendered
func (c *core) render(rec Record) []byte {
	var src string
	if rec.Source != nil {
		src = rec.Source.String()
	}
	return c.formatter.Format(formatter.Entry{
		Time:    rec.Time,
		Level:   rec.Level.String(),
		Thread:  rec.Thread,
		Message: rec.Message,
		Source:  src,
	}, c.withSource || rec.Source != nil)
}

// diagnostics writes the logger's own failures to a fallback channel,
// standard error by default, at a bounded rate so a failing disk cannot
// flood it.
type diagnostics struct {
	enabled    atomic.Bool
	limiter    *rate.Limiter
	mu         sync.Mutex
	out        io.Writer
	suppressed atomic.Uint64
}

func newDiagnostics(enabled bool, perSecond int, out io.Writer) *diagnostics {
	if perSecond <= 0 {
		perSecond = 1
	}
	if out == nil {
		out = os.Stderr
	}
	d := &diagnostics{
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		out:     out,
	}
	d.enabled.Store(enabled)
	return d
}

// internalLog handles writing internal logger diagnostics, if enabled.
func (d *diagnostics) internalLog(format string, args ...any) {
	if !d.enabled.Load() {
		return
	}
	if !d.limiter.Allow() {
		d.suppressed.Add(1)
		return
	}

	// Ensure consistent "asynclog: " prefix
	if !strings.HasPrefix(format, "asynclog: ") {
		format = "asynclog: " + format
	}
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	msg := fmt.Sprintf(format, args...)
	if n := d.suppressed.Swap(0); n > 0 {
		msg = fmt.Sprintf("asynclog: %d diagnostics suppressed\n", n) + msg
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprint(d.out, msg)
}

// reporter adapts internalLog to a sink error handler
func (d *diagnostics) reporter(name string) func(error) {
	return func(err error) {
		d.internalLog("logger '%s': %v", name, err)
	}
}
