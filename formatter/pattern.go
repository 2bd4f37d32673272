package formatter

import (
	"errors"
	"fmt"
	"strconv"
)

// Field indices addressable from a pattern
const (
	FieldTimestamp = iota
	FieldLevel
	FieldThread
	FieldMessage
	FieldSource

	fieldCount
)

// SequentialArity is the number of "{}" placeholders a sequential pattern must contain
const SequentialArity = 4

// DefaultPattern renders "[timestamp][level][thread] message"
const DefaultPattern = "[{}][{}][{}] {}"

// ErrPattern marks a pattern that cannot be compiled
var ErrPattern = errors.New("invalid format pattern")

// segment is either a literal run or a field reference
type segment struct {
	literal string
	field   int // -1 for literal
}

// compiled is the parsed form of a pattern
type compiled struct {
	segments   []segment
	literalLen int
	hasSource  bool
}

// compilePattern parses "{}" and "{N}" placeholders with "{{" / "}}" escapes.
// Sequential placeholders must match SequentialArity exactly; explicit
// indices must address a known field; the two styles cannot be mixed.
func compilePattern(pattern string) (*compiled, error) {
	c := &compiled{}
	var lit []byte
	sequential, explicit := 0, 0

	flush := func() {
		if len(lit) > 0 {
			c.segments = append(c.segments, segment{literal: string(lit), field: -1})
			c.literalLen += len(lit)
			lit = lit[:0]
		}
	}

	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch ch {
		case '{':
			if i+1 < len(pattern) && pattern[i+1] == '{' {
				lit = append(lit, '{')
				i++
				continue
			}
			end := i + 1
			for end < len(pattern) && pattern[end] != '}' && pattern[end] != '{' {
				end++
			}
			if end >= len(pattern) || pattern[end] != '}' {
				return nil, fmt.Errorf("%w: unclosed placeholder at offset %d", ErrPattern, i)
			}
			body := pattern[i+1 : end]
			field := sequential
			if body == "" {
				sequential++
			} else {
				n, err := strconv.Atoi(body)
				if err != nil {
					return nil, fmt.Errorf("%w: placeholder {%s} is not a field index", ErrPattern, body)
				}
				if n < 0 || n >= fieldCount {
					return nil, fmt.Errorf("%w: field index %d out of range [0,%d]", ErrPattern, n, fieldCount-1)
				}
				field = n
				explicit++
			}
			flush()
			c.segments = append(c.segments, segment{field: field})
			if field == FieldSource {
				c.hasSource = true
			}
			i = end

		case '}':
			if i+1 < len(pattern) && pattern[i+1] == '}' {
				lit = append(lit, '}')
				i++
				continue
			}
			return nil, fmt.Errorf("%w: unmatched '}' at offset %d", ErrPattern, i)

		default:
			lit = append(lit, ch)
		}
	}
	flush()

	switch {
	case sequential > 0 && explicit > 0:
		return nil, fmt.Errorf("%w: cannot mix {} and {N} placeholders", ErrPattern)
	case explicit == 0 && sequential != SequentialArity:
		return nil, fmt.Errorf("%w: expected %d placeholders, found %d", ErrPattern, SequentialArity, sequential)
	}

	return c, nil
}
