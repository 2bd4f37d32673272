// Package sanitizer provides a composable, concurrency-safe interface for
// sanitizing log text based on rules built from bitwise filter and transform flags.
package sanitizer

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Filter flags for character matching
const (
	FilterNonPrintable uint64 = 1 << iota // Matches runes not classified as printable by strconv.IsPrint
	FilterControl                         // Matches control characters (unicode.IsControl)
	FilterWhitespace                      // Matches whitespace characters (unicode.IsSpace)
	FilterLineBreak                       // Matches '\n' and '\r', which would split one record over several lines
	FilterNull                            // Matches NUL, the unwritten-byte marker of mmap regions
)

// Transform flags for character transformation
const (
	TransformStrip      uint64 = 1 << iota // Removes the character
	TransformHexEncode                     // Encodes the character's UTF-8 bytes as "<XXYY>"
	TransformJSONEscape                    // Escapes the character with JSON-style backslashes (e.g., '\n', '\u0000')
	TransformSpace                         // Replaces the character with a single space
)

// PolicyPreset defines pre-configured sanitization policies
type PolicyPreset string

const (
	PolicyRaw  PolicyPreset = "raw"  // Line breaks and NUL become spaces, everything else passes through
	PolicyJSON PolicyPreset = "json" // Escaping for strings embedded in JSON string literals
	PolicyTxt  PolicyPreset = "txt"  // Non-printable runes hex-encoded for plain text log files
)

type rule struct {
	filter    uint64
	transform uint64
}

var policyRules = map[PolicyPreset][]rule{
	PolicyRaw:  {{filter: FilterLineBreak | FilterNull, transform: TransformSpace}},
	PolicyTxt:  {{filter: FilterNonPrintable, transform: TransformHexEncode}},
	PolicyJSON: {{filter: FilterControl, transform: TransformJSONEscape}},
}

// filterOrder fixes evaluation order so a rule with several filters behaves deterministically
var filterOrder = []uint64{FilterLineBreak, FilterNull, FilterControl, FilterNonPrintable, FilterWhitespace}

var filterCheckers = map[uint64]func(rune) bool{
	FilterNonPrintable: func(r rune) bool { return !strconv.IsPrint(r) },
	FilterControl:      unicode.IsControl,
	FilterWhitespace:   unicode.IsSpace,
	FilterLineBreak:    func(r rune) bool { return r == '\n' || r == '\r' },
	FilterNull:         func(r rune) bool { return r == 0 },
}

// Sanitizer holds an ordered rule set. Rules must be configured before the
// sanitizer is shared; Sanitize itself keeps no state and is safe for
// concurrent use.
type Sanitizer struct {
	rules []rule
}

// New creates a Sanitizer with no rules (passthrough)
func New() *Sanitizer {
	return &Sanitizer{}
}

// ForPolicy creates a Sanitizer preloaded with a preset
func ForPolicy(preset PolicyPreset) *Sanitizer {
	return New().Policy(preset)
}

// Rule appends a custom rule, earliest rule applies first
func (s *Sanitizer) Rule(filter uint64, transform uint64) *Sanitizer {
	s.rules = append(s.rules, rule{filter: filter, transform: transform})
	return s
}

// Policy appends the rules of a preset
func (s *Sanitizer) Policy(preset PolicyPreset) *Sanitizer {
	if rules, ok := policyRules[preset]; ok {
		s.rules = append(s.rules, rules...)
	}
	return s
}

// Sanitize applies all configured rules to the input string
func (s *Sanitizer) Sanitize(data string) string {
	if len(s.rules) == 0 || !s.needsWork(data) {
		return data
	}
	return string(s.AppendSanitized(make([]byte, 0, len(data)+16), data))
}

// AppendSanitized appends the sanitized form of data to dst and returns the extended buffer
func (s *Sanitizer) AppendSanitized(dst []byte, data string) []byte {
	if len(s.rules) == 0 {
		return append(dst, data...)
	}
	for _, r := range data {
		matched := false
		for _, rl := range s.rules {
			if matchesFilter(r, rl.filter) {
				dst = applyTransform(dst, r, rl.transform)
				matched = true
				break
			}
		}
		if !matched {
			dst = utf8.AppendRune(dst, r)
		}
	}
	return dst
}

// needsWork reports whether any rune in data matches a rule
func (s *Sanitizer) needsWork(data string) bool {
	for _, r := range data {
		for _, rl := range s.rules {
			if matchesFilter(r, rl.filter) {
				return true
			}
		}
	}
	return false
}

func matchesFilter(r rune, filterMask uint64) bool {
	for _, flag := range filterOrder {
		if filterMask&flag != 0 && filterCheckers[flag](r) {
			return true
		}
	}
	return false
}

func applyTransform(buf []byte, r rune, transformMask uint64) []byte {
	switch {
	case transformMask&TransformStrip != 0:
		return buf

	case transformMask&TransformSpace != 0:
		return append(buf, ' ')

	case transformMask&TransformHexEncode != 0:
		var runeBytes [utf8.UTFMax]byte
		n := utf8.EncodeRune(runeBytes[:], r)
		buf = append(buf, '<')
		buf = hex.AppendEncode(buf, runeBytes[:n])
		return append(buf, '>')

	case transformMask&TransformJSONEscape != 0:
		switch r {
		case '\n':
			return append(buf, '\\', 'n')
		case '\r':
			return append(buf, '\\', 'r')
		case '\t':
			return append(buf, '\\', 't')
		case '\b':
			return append(buf, '\\', 'b')
		case '\f':
			return append(buf, '\\', 'f')
		default:
			if r < 0x20 || r == 0x7f {
				return append(buf, fmt.Sprintf("\\u%04x", r)...)
			}
			return utf8.AppendRune(buf, r)
		}
	}
	return utf8.AppendRune(buf, r)
}

// AppendJSONString appends s as a quoted JSON string literal, escaping quotes,
// backslashes and control characters
func AppendJSONString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c >= ' ' && c != '"' && c != '\\' && c != 0x7f {
			start := i
			for i < len(s) && s[i] >= ' ' && s[i] != '"' && s[i] != '\\' && s[i] != 0x7f {
				i++
			}
			buf = append(buf, s[start:i]...)
			continue
		}
		switch c {
		case '\\', '"':
			buf = append(buf, '\\', c)
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		default:
			buf = append(buf, fmt.Sprintf("\\u%04x", c)...)
		}
		i++
	}
	return append(buf, '"')
}
