//go:build !windows && !plan9 && !js && !wasip1

package asynclog

import (
	"log/syslog"
)

// syslogWriter forwards records to the local syslog daemon
type syslogWriter struct {
	w *syslog.Writer
}

// NewSystemLog connects to the local syslog daemon under tag
func NewSystemLog(tag string) (SystemLog, error) {
	w, err := syslog.New(syslog.LOG_USER|syslog.LOG_INFO, tag)
	if err != nil {
		return nil, fmtErrorf("failed to connect to local syslog: %w", err)
	}
	return &syslogWriter{w: w}, nil
}

func (s *syslogWriter) Emit(level Level, text string) error {
	switch level {
	case LevelTrace, LevelDebug:
		return s.w.Debug(text)
	case LevelInfo:
		return s.w.Info(text)
	case LevelWarn:
		return s.w.Warning(text)
	case LevelError:
		return s.w.Err(text)
	default:
		return s.w.Crit(text)
	}
}

func (s *syslogWriter) Close() error {
	return s.w.Close()
}
