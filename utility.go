package asynclog

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

// callerLocation returns the source location skip frames above its caller
func callerLocation(skip int) *SourceLocation {
	pc := make([]uintptr, 1)
	n := runtime.Callers(skip+2, pc) // +2 for Callers itself and this function
	if n == 0 {
		return nil
	}
	frame, _ := runtime.CallersFrames(pc[:n]).Next()
	if frame.File == "" {
		return nil
	}
	return &SourceLocation{
		File:     frame.File,
		Line:     frame.Line,
		Function: shortFunctionName(frame.Function),
	}
}

// shortFunctionName trims the package path and names closures after their parent
func shortFunctionName(fn string) string {
	if fn == "" {
		return ""
	}
	parts := strings.Split(filepath.Base(fn), ".")
	last := parts[len(parts)-1]
	if strings.HasPrefix(last, "func") && len(last) > 4 && len(parts) > 1 {
		anonymous := true
		for _, r := range last[4:] {
			if !unicode.IsDigit(r) {
				anonymous = false
				break
			}
		}
		if anonymous {
			return fmt.Sprintf("(anonymous in %s)", strings.Join(parts[1:len(parts)-1], "."))
		}
	}
	return last
}

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "asynclog: ") {
		format = "asynclog: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%w; %w", err1, err2)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}
