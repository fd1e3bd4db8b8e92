// Package normalize reduces runner output and expected text to a canonical
// form before comparison.
//
// Two policies exist and exactly one is selected per harness run:
//
//   - Strict keeps the text line-for-line. Trailing whitespace is trimmed from
//     every line and blank lines at either end are dropped; everything else,
//     including internal blank lines and runs of spaces, is significant.
//   - Fuzzy reduces the text to its whitespace-separated tokens joined by single
//     spaces, so line breaks and indentation are ignored.
//
// Normalize is idempotent for both modes.
package normalize

import (
	"fmt"
	"strings"
	"unicode"
)

// Mode selects a normalization policy.
type Mode int

const (
	// Strict compares line by line, ignoring trailing whitespace and
	// surrounding blank lines.
	Strict Mode = iota

	// Fuzzy compares the sequence of whitespace-separated tokens.
	Fuzzy
)

// Modes lists every supported mode in declaration order.
var Modes = []Mode{Strict, Fuzzy}

// String returns the lower-case mode name used in flags and reports.
func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Fuzzy:
		return "fuzzy"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler so reports carry the mode name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode converts a mode name back into a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return Strict, fmt.Errorf("unknown normalization mode %q: must be one of strict, fuzzy", s)
}

// FromFuzzy maps the command-line --fuzzy flag onto a Mode.
func FromFuzzy(fuzzy bool) Mode {
	if fuzzy {
		return Fuzzy
	}
	return Strict
}

// Normalize returns the canonical form of text under mode.
// Unknown modes fall back to Strict.
func Normalize(text string, mode Mode) string {
	if mode == Fuzzy {
		return fuzzy(text)
	}
	return strict(text)
}

func strict(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		// A carriage return before the newline counts as trailing whitespace.
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}

	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}

	return strings.Join(lines[start:end], "\n")
}

func fuzzy(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
