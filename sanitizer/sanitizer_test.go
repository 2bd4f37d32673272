package sanitizer

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizerPolicies(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		policy   PolicyPreset
		expected string
	}{
		{
			name:     "txt hex encodes null byte",
			input:    "test\x00data",
			policy:   PolicyTxt,
			expected: "test<00>data",
		},
		{
			name:     "txt hex encodes line breaks",
			input:    "line1\nline2",
			policy:   PolicyTxt,
			expected: "line1<0a>line2",
		},
		{
			name:     "txt preserves UTF-8",
			input:    "Hello 世界 ✓",
			policy:   PolicyTxt,
			expected: "Hello 世界 ✓",
		},
		{
			name:     "txt hex encodes multi-byte control",
			input:    "line1\u0085line2",
			policy:   PolicyTxt,
			expected: "line1<c285>line2",
		},
		{
			name:     "json escapes control chars",
			input:    "line1\nline2\ttab\rreturn",
			policy:   PolicyJSON,
			expected: `line1\nline2\ttab\rreturn`,
		},
		{
			name:     "json escapes unicode control",
			input:    "bell\x07",
			policy:   PolicyJSON,
			expected: `bell\u0007`,
		},
		{
			name:     "raw flattens line breaks",
			input:    "a\r\nb",
			policy:   PolicyRaw,
			expected: "a  b",
		},
		{
			name:     "raw replaces NUL",
			input:    "a\x00b",
			policy:   PolicyRaw,
			expected: "a b",
		},
		{
			name:     "raw keeps tabs",
			input:    "a\tb",
			policy:   PolicyRaw,
			expected: "a\tb",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := ForPolicy(tc.policy)
			assert.Equal(t, tc.expected, s.Sanitize(tc.input))
		})
	}
}

func TestSanitizerPassthrough(t *testing.T) {
	s := New()
	input := "hello\x00world\n"
	assert.Equal(t, input, s.Sanitize(input))
	assert.Equal(t, []byte(input), s.AppendSanitized(nil, input))
}

func TestSanitizerCustomRules(t *testing.T) {
	t.Run("strip whitespace", func(t *testing.T) {
		s := New().Rule(FilterWhitespace, TransformStrip)
		assert.Equal(t, "abc", s.Sanitize("a b\tc"))
	})

	t.Run("first matching rule wins", func(t *testing.T) {
		s := New().
			Rule(FilterLineBreak, TransformSpace).
			Rule(FilterControl, TransformHexEncode)
		assert.Equal(t, "a b<00>", s.Sanitize("a\nb\x00"))
	})
}

func TestSanitizerConcurrentUse(t *testing.T) {
	s := ForPolicy(PolicyTxt)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.Equal(t, "x<0a>y", s.Sanitize("x\ny"))
			}
		}()
	}
	wg.Wait()
}

func TestAppendJSONString(t *testing.T) {
	inputs := []string{
		"plain",
		`quote " and backslash \`,
		"newline\nand\ttab",
		"\x00\x1f\x7f",
		"世界",
	}

	for _, in := range inputs {
		out := AppendJSONString(nil, in)
		var decoded string
		require.NoError(t, json.Unmarshal(out, &decoded), "output %q must be valid JSON", out)
		assert.Equal(t, in, decoded)
	}
}
