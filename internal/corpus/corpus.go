package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
)

// ErrMismatch is matched by every *MismatchError via errors.Is.
var ErrMismatch = errors.New("corpus mismatch")

// Example is one worked example: a literal input and the output it should
// produce.
type Example struct {
	// ID is the 1-based position of the example in the document.
	ID int `json:"id"`

	// Input is fed to the runner on standard input.
	Input string `json:"input"`

	// Expected is compared against the runner's standard output.
	Expected string `json:"expected"`
}

// Corpus is the ordered set of examples parsed from one document.
// It is read-only once returned.
type Corpus struct {
	// Source is the path the corpus was loaded from, if any.
	Source string `json:"source,omitempty"`

	Examples []Example `json:"examples"`
}

// Len returns the number of examples.
func (c *Corpus) Len() int {
	return len(c.Examples)
}

// MismatchError reports a document whose input and expected-output block
// counts differ.
type MismatchError struct {
	Source   string
	Inputs   int
	Expected int
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("found %d input blocks but %d expected output blocks", e.Inputs, e.Expected)
	if e.Source != "" {
		return fmt.Sprintf("corpus mismatch in %s: %s", e.Source, msg)
	}
	return "corpus mismatch: " + msg
}

// Is reports whether target is ErrMismatch.
func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

// Block patterns. The closing fence must start a line; an empty block is
// allowed.
var (
	inputBlock    = regexp.MustCompile("(?s)Input:\\s*```text[ \\t]*\\n(|.*?\\n)```")
	expectedBlock = regexp.MustCompile("(?s)Expected output:\\s*```text[ \\t]*\\n(|.*?\\n)```")
)

// Load reads and parses the document at path. The format is chosen by file
// extension: .yaml and .yml are YAML, anything else is Markdown.
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read examples file: %w", err)
	}

	var c *Corpus
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c, err = ParseYAML(data)
	default:
		c, err = Parse(data)
	}
	if err != nil {
		var mm *MismatchError
		if errors.As(err, &mm) {
			mm.Source = path
		}
		return nil, err
	}

	c.Source = path
	return c, nil
}

// Parse extracts examples from a Markdown document.
func Parse(src []byte) (*Corpus, error) {
	text, err := decode(src)
	if err != nil {
		return nil, err
	}

	inputs := findBlocks(inputBlock, text)
	expecteds := findBlocks(expectedBlock, text)

	return build(inputs, expecteds)
}

// yamlCorpus is the on-disk shape of a YAML corpus.
type yamlCorpus struct {
	Examples []yamlExample `yaml:"examples"`
}

// yamlExample uses pointers so a missing key is distinguishable from an empty
// string.
type yamlExample struct {
	Input    *string `yaml:"input"`
	Expected *string `yaml:"expected"`
}

// ParseYAML extracts examples from a YAML document. Unknown keys are rejected.
// An entry without input or expected counts as a missing block.
func ParseYAML(src []byte) (*Corpus, error) {
	text, err := decode(src)
	if err != nil {
		return nil, err
	}

	var doc yamlCorpus
	dec := yaml.NewDecoder(strings.NewReader(text))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var inputs, expecteds []string
	for _, ex := range doc.Examples {
		if ex.Input != nil {
			inputs = append(inputs, *ex.Input)
		}
		if ex.Expected != nil {
			expecteds = append(expecteds, *ex.Expected)
		}
	}

	return build(inputs, expecteds)
}

// build pairs the i-th input with the i-th expected output.
func build(inputs, expecteds []string) (*Corpus, error) {
	if len(inputs) != len(expecteds) {
		return nil, &MismatchError{Inputs: len(inputs), Expected: len(expecteds)}
	}

	c := &Corpus{Examples: make([]Example, 0, len(inputs))}
	for i := range inputs {
		c.Examples = append(c.Examples, Example{
			ID:       i + 1,
			Input:    strings.TrimSpace(inputs[i]),
			Expected: strings.TrimSpace(expecteds[i]),
		})
	}
	return c, nil
}

func findBlocks(re *regexp.Regexp, text string) []string {
	matches := re.FindAllStringSubmatch(text, -1)
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, m[1])
	}
	return blocks
}

// decode converts the raw document to UTF-8 with LF line endings, honouring a
// UTF-8 or UTF-16 byte order mark. Documents without a BOM are taken as UTF-8.
func decode(src []byte) (string, error) {
	if hasBOM(src) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), src)
		if err != nil {
			return "", fmt.Errorf("failed to decode document: %w", err)
		}
		src = out
	}
	return strings.ReplaceAll(string(src), "\r\n", "\n"), nil
}

var boms = [][]byte{
	{0xEF, 0xBB, 0xBF},
	{0xFF, 0xFE},
	{0xFE, 0xFF},
}

func hasBOM(src []byte) bool {
	for _, bom := range boms {
		if bytes.HasPrefix(src, bom) {
			return true
		}
	}
	return false
}
