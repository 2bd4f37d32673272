package asynclog

import (
	"strings"
	"sync"
	"time"

	timecache "github.com/agilira/go-timecache"
)

// Clock supplies record timestamps
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now calls f
func (f ClockFunc) Now() time.Time { return f() }

// sharedTimeCache backs every cached clock. It ticks at millisecond
// resolution for the life of the process.
var sharedTimeCache = sync.OnceValue(func() *timecache.TimeCache {
	return timecache.NewWithResolution(time.Millisecond)
})

// chinaZone is UTC+8 without daylight saving
var chinaZone = time.FixedZone("CST", 8*60*60)

// cachedClock reads the shared time cache and converts to loc
type cachedClock struct {
	loc *time.Location
}

func (c cachedClock) Now() time.Time {
	return sharedTimeCache().CachedTime().In(c.loc)
}

// UTCClock returns a cached clock in UTC
func UTCClock() Clock { return cachedClock{loc: time.UTC} }

// ChinaClock returns a cached clock fixed at UTC+8
func ChinaClock() Clock { return cachedClock{loc: chinaZone} }

// LocalClock returns a cached clock in the process's local zone
func LocalClock() Clock { return cachedClock{loc: time.Local} }

// ClockFor maps a timezone setting ("utc", "china", "local" or an IANA name) to a clock
func ClockFor(timezone string) (Clock, error) {
	switch strings.ToLower(strings.TrimSpace(timezone)) {
	case "", "local":
		return LocalClock(), nil
	case "utc":
		return UTCClock(), nil
	case "china", "cst", "utc+8":
		return ChinaClock(), nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmtErrorf("invalid timezone '%s': %w", timezone, err)
	}
	return cachedClock{loc: loc}, nil
}
