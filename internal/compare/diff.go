package compare

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Op is a line-level edit operation.
type Op int

const (
	OpEqual Op = iota
	OpDelete
	OpInsert
)

func (o Op) String() string {
	switch o {
	case OpEqual:
		return "equal"
	case OpDelete:
		return "delete"
	case OpInsert:
		return "insert"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Op) UnmarshalText(text []byte) error {
	for _, op := range []Op{OpEqual, OpDelete, OpInsert} {
		if op.String() == string(text) {
			*o = op
			return nil
		}
	}
	return fmt.Errorf("unknown diff op %q", text)
}

// Edit applies Op to a run of consecutive lines.
type Edit struct {
	Op    Op       `json:"op"`
	Lines []string `json:"lines"`
}

// DiffContext is the number of unchanged lines shown around each hunk.
const DiffContext = 3

// LineDiff returns the edits that turn a into b, line by line.
//
// Matching uses difflib's SequenceMatcher (longest matching blocks, applied
// recursively), the same algorithm as Python's difflib.
func LineDiff(a, b string) []Edit {
	al, bl := splitLines(a), splitLines(b)
	m := difflib.NewMatcher(al, bl)

	var edits []Edit
	for _, oc := range m.GetOpCodes() {
		switch oc.Tag {
		case 'e':
			edits = appendEdit(edits, OpEqual, al[oc.I1:oc.I2])
		case 'd':
			edits = appendEdit(edits, OpDelete, al[oc.I1:oc.I2])
		case 'i':
			edits = appendEdit(edits, OpInsert, bl[oc.J1:oc.J2])
		case 'r':
			edits = appendEdit(edits, OpDelete, al[oc.I1:oc.I2])
			edits = appendEdit(edits, OpInsert, bl[oc.J1:oc.J2])
		}
	}
	return edits
}

func appendEdit(edits []Edit, op Op, lines []string) []Edit {
	if len(lines) == 0 {
		return edits
	}
	cp := make([]string, len(lines))
	copy(cp, lines)
	return append(edits, Edit{Op: op, Lines: cp})
}

// Apply replays edits against a and returns the resulting text. It fails if
// the equal and delete lines do not match a.
func Apply(a string, edits []Edit) (string, error) {
	src := splitLines(a)
	var out []string

	pos := 0
	for i, e := range edits {
		switch e.Op {
		case OpEqual, OpDelete:
			for _, line := range e.Lines {
				if pos >= len(src) {
					return "", fmt.Errorf("edit %d: %s past end of text", i, e.Op)
				}
				if src[pos] != line {
					return "", fmt.Errorf("edit %d: line %d is %q, want %q", i, pos+1, src[pos], line)
				}
				if e.Op == OpEqual {
					out = append(out, line)
				}
				pos++
			}
		case OpInsert:
			out = append(out, e.Lines...)
		default:
			return "", fmt.Errorf("edit %d: unknown op %s", i, e.Op)
		}
	}
	if pos != len(src) {
		return "", fmt.Errorf("edits consumed %d of %d lines", pos, len(src))
	}

	return strings.Join(out, "\n"), nil
}

// Unified renders the difference between a and b as a unified diff with
// "expected" and "actual" file headers. Equal texts give an empty string.
func Unified(a, b string) string {
	if a == b {
		return ""
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        withNewlines(splitLines(a)),
		B:        withNewlines(splitLines(b)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  DiffContext,
	})
	if err != nil {
		// Writing to a strings.Builder does not fail.
		return ""
	}
	return text
}

// splitLines splits on "\n". The empty text has no lines, which keeps
// splitLines and strings.Join inverse to each other.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}
