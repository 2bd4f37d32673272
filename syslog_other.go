//go:build windows || plan9 || js || wasip1

package asynclog

// NewSystemLog is unavailable on this platform
func NewSystemLog(tag string) (SystemLog, error) {
	return nil, fmtErrorf("system log is not supported on this platform (tag '%s')", tag)
}
