package formatter

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry() Entry {
	return Entry{
		Time:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Level:   "INFO",
		Thread:  "main",
		Message: "hello world",
		Source:  "app.go:42:main.run",
	}
}

func TestFormatter(t *testing.T) {
	t.Run("default pattern", func(t *testing.T) {
		f := New().TimestampFormat(time.RFC3339)
		out := string(f.Format(testEntry(), false))
		assert.Equal(t, "[2024-01-01T12:00:00Z][INFO][main] hello world\n", out)
	})

	t.Run("source suffix", func(t *testing.T) {
		f := New().TimestampFormat(time.RFC3339)
		out := string(f.Format(testEntry(), true))
		assert.Equal(t, "[2024-01-01T12:00:00Z][INFO][main] hello world [app.go:42:main.run]\n", out)
	})

	t.Run("explicit indices", func(t *testing.T) {
		f := New().TimestampFormat("15:04:05")
		require.NoError(t, f.SetPattern("{1} {3} <{4}> {0}"))
		out := string(f.Format(testEntry(), true))
		assert.Equal(t, "INFO hello world <app.go:42:main.run> 12:00:00\n", out)
	})

	t.Run("escaped braces", func(t *testing.T) {
		f := New().TimestampFormat("15:04")
		require.NoError(t, f.SetPattern("{{{}}} {} {} {}"))
		out := string(f.Format(testEntry(), false))
		assert.Equal(t, "{12:00} INFO main hello world\n", out)
	})

	t.Run("message stays on one line", func(t *testing.T) {
		f := New()
		e := testEntry()
		e.Message = "line1\nline2"
		out := string(f.Format(e, false))
		assert.Equal(t, 1, strings.Count(out, "\n"))
		assert.Contains(t, out, "line1<0a>line2")
	})

	t.Run("json format", func(t *testing.T) {
		f := New().Type(TypeJSON).TimestampFormat(time.RFC3339)
		e := testEntry()
		e.Message = `say "hi"` + "\n"
		out := f.Format(e, true)

		var decoded map[string]string
		require.NoError(t, json.Unmarshal(out, &decoded))
		assert.Equal(t, "2024-01-01T12:00:00Z", decoded["time"])
		assert.Equal(t, "INFO", decoded["level"])
		assert.Equal(t, "main", decoded["thread"])
		assert.Equal(t, e.Message, decoded["message"])
		assert.Equal(t, "app.go:42:main.run", decoded["source"])
	})

	t.Run("raw format", func(t *testing.T) {
		f := New().Type(TypeRaw)
		assert.Equal(t, "hello world\n", string(f.Format(testEntry(), false)))
	})

	t.Run("unknown type falls back to txt", func(t *testing.T) {
		f := New().Type("xml").TimestampFormat(time.RFC3339)
		assert.True(t, strings.HasPrefix(string(f.Format(testEntry(), false)), "[2024-01-01T12:00:00Z]"))
	})
}

func TestPatternErrors(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"too few placeholders", "[{}] {}"},
		{"too many placeholders", "{} {} {} {} {}"},
		{"index out of range", "{0} {5}"},
		{"negative index", "{-1}"},
		{"non numeric", "{level}"},
		{"mixed styles", "{} {1} {} {}"},
		{"unclosed", "[{}][{}][{}] {"},
		{"stray close", "[{}][{}][{}] {} }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New().TimestampFormat(time.RFC3339)
			err := f.SetPattern(tt.pattern)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrPattern))

			pattern, perr := f.Pattern()
			assert.Equal(t, tt.pattern, pattern)
			assert.Error(t, perr)

			out := string(f.Format(testEntry(), false))
			assert.Equal(t, FallbackMarker+" 2024-01-01T12:00:00Z INFO hello world\n", out)
		})
	}
}

func TestPatternRecovery(t *testing.T) {
	f := New()
	require.Error(t, f.SetPattern("{}"))
	require.NoError(t, f.SetPattern(DefaultPattern))
	assert.NotContains(t, string(f.Format(testEntry(), false)), FallbackMarker)
}

func TestConcurrentReconfigure(t *testing.T) {
	f := New()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				out := f.Format(testEntry(), false)
				assert.True(t, len(out) > 0 && out[len(out)-1] == '\n')
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			if j%2 == 0 {
				_ = f.SetPattern("{}")
			} else {
				_ = f.SetPattern(DefaultPattern)
			}
			f.Type(TypeJSON).Type(TypeTxt)
		}
	}()

	wg.Wait()
}

type point struct {
	X, Y int
}

func TestFormatArgs(t *testing.T) {
	assert.Equal(t, "single", FormatArgs("single"))
	assert.Equal(t, "a 1 true 2.5 null", FormatArgs("a", 1, true, 2.5, nil))
	assert.Equal(t, "err boom", FormatArgs("err", errors.New("boom")))
	assert.Equal(t, "took 1.5s", FormatArgs("took", 1500*time.Millisecond))

	dumped := FormatArgs(point{X: 1, Y: 2})
	assert.NotContains(t, dumped, "\n")
	assert.Contains(t, dumped, "X: (int) 1")
	assert.Contains(t, dumped, "Y: (int) 2")
}
