// Package formatter renders log entries into single-line byte records using a
// positional pattern (txt), a fixed JSON object (json), or the bare message (raw).
package formatter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/lixenwraith/asynclog/sanitizer"
)

// Output types
const (
	TypeTxt  = "txt"
	TypeJSON = "json"
	TypeRaw  = "raw"
)

// FallbackMarker prefixes records rendered without a usable pattern
const FallbackMarker = "[format error]"

// Entry is the formatter's view of a record
type Entry struct {
	Time    time.Time
	Level   string
	Thread  string
	Message string
	Source  string // "file:line:function", empty when unknown
}

// Formatter is safe for concurrent use. Reconfiguration takes the write lock,
// formatting takes the read lock.
type Formatter struct {
	mu              sync.RWMutex
	format          string
	pattern         string
	compiled        *compiled
	patternErr      error
	timestampFormat string

	txt  *sanitizer.Sanitizer
	json *sanitizer.Sanitizer
	raw  *sanitizer.Sanitizer
}

// New creates a txt formatter using DefaultPattern and RFC3339Nano timestamps
func New() *Formatter {
	c, _ := compilePattern(DefaultPattern)
	return &Formatter{
		format:          TypeTxt,
		pattern:         DefaultPattern,
		compiled:        c,
		timestampFormat: time.RFC3339Nano,
		txt:             sanitizer.ForPolicy(sanitizer.PolicyTxt),
		json:            sanitizer.ForPolicy(sanitizer.PolicyJSON),
		raw:             sanitizer.ForPolicy(sanitizer.PolicyRaw),
	}
}

// Type sets the output format ("txt", "json", or "raw"); unknown values fall back to txt
func (f *Formatter) Type(format string) *Formatter {
	switch format {
	case TypeTxt, TypeJSON, TypeRaw:
	default:
		format = TypeTxt
	}
	f.mu.Lock()
	f.format = format
	f.mu.Unlock()
	return f
}

// TimestampFormat sets the time layout used for the timestamp field
func (f *Formatter) TimestampFormat(layout string) *Formatter {
	if layout == "" {
		layout = time.RFC3339Nano
	}
	f.mu.Lock()
	f.timestampFormat = layout
	f.mu.Unlock()
	return f
}

// SetPattern installs a txt pattern. An invalid pattern is still installed so
// that the failure is visible in the output; the compile error is returned.
func (f *Formatter) SetPattern(pattern string) error {
	c, err := compilePattern(pattern)
	f.mu.Lock()
	f.pattern = pattern
	f.compiled = c
	f.patternErr = err
	f.mu.Unlock()
	return err
}

// Pattern returns the installed pattern and its compile error, if any
func (f *Formatter) Pattern() (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pattern, f.patternErr
}

// Format renders e into a newly allocated, newline-terminated record.
// withSource appends " [file:line:function]" unless the pattern renders field 4 itself.
func (f *Formatter) Format(e Entry, withSource bool) []byte {
	return f.AppendFormat(nil, e, withSource)
}

// AppendFormat is Format appending to dst
func (f *Formatter) AppendFormat(dst []byte, e Entry, withSource bool) []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if dst == nil {
		dst = make([]byte, 0, f.estimate(e))
	}

	switch f.format {
	case TypeJSON:
		return f.appendJSON(dst, e, withSource)
	case TypeRaw:
		dst = f.raw.AppendSanitized(dst, e.Message)
		if withSource && e.Source != "" {
			dst = append(dst, " ["...)
			dst = append(dst, e.Source...)
			dst = append(dst, ']')
		}
		return append(dst, '\n')
	}

	if f.compiled == nil {
		return f.appendFallback(dst, e)
	}

	for _, seg := range f.compiled.segments {
		if seg.field < 0 {
			dst = append(dst, seg.literal...)
			continue
		}
		dst = f.appendField(dst, seg.field, e)
	}
	if withSource && !f.compiled.hasSource && e.Source != "" {
		dst = append(dst, " ["...)
		dst = f.txt.AppendSanitized(dst, e.Source)
		dst = append(dst, ']')
	}
	return append(dst, '\n')
}

// estimate reserves room for literals, fields and sanitizer expansion
func (f *Formatter) estimate(e Entry) int {
	n := len(e.Level) + len(e.Thread) + len(e.Message) + len(e.Source) + len(f.timestampFormat) + 16
	if f.compiled != nil {
		n += f.compiled.literalLen
	}
	if f.format == TypeJSON {
		n += 64
	}
	return n
}

func (f *Formatter) appendField(dst []byte, field int, e Entry) []byte {
	switch field {
	case FieldTimestamp:
		return e.Time.AppendFormat(dst, f.timestampFormat)
	case FieldLevel:
		return append(dst, e.Level...)
	case FieldThread:
		return f.txt.AppendSanitized(dst, e.Thread)
	case FieldMessage:
		return f.txt.AppendSanitized(dst, e.Message)
	case FieldSource:
		return f.txt.AppendSanitized(dst, e.Source)
	}
	return dst
}

// appendFallback renders a degraded but parseable record when the pattern is unusable
func (f *Formatter) appendFallback(dst []byte, e Entry) []byte {
	dst = append(dst, FallbackMarker...)
	dst = append(dst, ' ')
	dst = e.Time.AppendFormat(dst, f.timestampFormat)
	dst = append(dst, ' ')
	dst = append(dst, e.Level...)
	dst = append(dst, ' ')
	dst = f.txt.AppendSanitized(dst, e.Message)
	return append(dst, '\n')
}

func (f *Formatter) appendJSON(dst []byte, e Entry, withSource bool) []byte {
	dst = append(dst, `{"time":"`...)
	dst = e.Time.AppendFormat(dst, f.timestampFormat)
	dst = append(dst, `","level":"`...)
	dst = append(dst, e.Level...)
	dst = append(dst, `","thread":`...)
	dst = sanitizer.AppendJSONString(dst, e.Thread)
	dst = append(dst, `,"message":`...)
	dst = sanitizer.AppendJSONString(dst, e.Message)
	if withSource && e.Source != "" {
		dst = append(dst, `,"source":`...)
		dst = sanitizer.AppendJSONString(dst, e.Source)
	}
	return append(dst, '}', '\n')
}

// FormatArgs renders variadic values as a space separated message.
// Composite values without a String or Error method are dumped with spew.
func FormatArgs(args ...any) string {
	if len(args) == 1 {
		if s, ok := args[0].(string); ok {
			return s
		}
	}

	buf := make([]byte, 0, 64*len(args))
	for i, arg := range args {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = appendValue(buf, arg)
	}
	return string(buf)
}

var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func appendValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case string:
		return append(buf, val...)
	case []byte:
		return append(buf, val...)
	case int:
		return strconv.AppendInt(buf, int64(val), 10)
	case int64:
		return strconv.AppendInt(buf, val, 10)
	case uint:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(buf, val, 10)
	case float32:
		return strconv.AppendFloat(buf, float64(val), 'f', -1, 32)
	case float64:
		return strconv.AppendFloat(buf, val, 'f', -1, 64)
	case bool:
		return strconv.AppendBool(buf, val)
	case nil:
		return append(buf, "null"...)
	case time.Time:
		return val.AppendFormat(buf, time.RFC3339Nano)
	case time.Duration:
		return append(buf, val.String()...)
	case error:
		return append(buf, val.Error()...)
	case fmt.Stringer:
		return append(buf, val.String()...)
	}

	switch v.(type) {
	case int8, int16, int32, uint8, uint16, uint32, uintptr:
		return append(buf, fmt.Sprint(v)...)
	}

	var b bytes.Buffer
	dumper.Fdump(&b, v)
	// spew output spans lines; collapse so one record stays one line
	return append(buf, strings.Join(strings.Fields(b.String()), " ")...)
}
