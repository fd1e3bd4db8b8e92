// Package suite runs several example corpora, each against its own runner,
// from one manifest file.
//
// A manifest is YAML (.yaml, .yml) or CUE (.cue):
//
//	timeout: 10
//	fuzzy: false
//	skills:
//	  - name: cpp-modernize
//	    examples: skills/cpp-modernize/references/examples.md
//	    runner: python3 skills/cpp-modernize/scripts/mock_runner.py
//	    fuzzy: true
//	    timeout: 5
//
// Relative example paths resolve against the manifest's directory, and runners
// execute with that directory as their working directory.
package suite

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/conform/internal/harness"
	"github.com/roach88/conform/internal/normalize"
)

// ErrInvalidManifest is returned for manifests that decode but fail validation.
var ErrInvalidManifest = errors.New("invalid suite manifest")

// Manifest is a decoded suite file.
type Manifest struct {
	// Timeout is the default per-invocation timeout in seconds.
	Timeout int `yaml:"timeout" json:"timeout,omitempty"`

	// Fuzzy selects fuzzy normalization for skills that do not override it.
	Fuzzy bool `yaml:"fuzzy" json:"fuzzy,omitempty"`

	Skills []Skill `yaml:"skills" json:"skills"`

	// Dir is the directory holding the manifest. Set by Load.
	Dir string `yaml:"-" json:"-"`
}

// Skill is one corpus/runner pair.
type Skill struct {
	Name     string `yaml:"name" json:"name"`
	Examples string `yaml:"examples" json:"examples"`
	Runner   string `yaml:"runner" json:"runner"`
	Fuzzy    *bool  `yaml:"fuzzy" json:"fuzzy,omitempty"`
	Timeout  *int   `yaml:"timeout" json:"timeout,omitempty"`
}

// ValidationError lists every problem found in a manifest.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	prefix := "suite manifest"
	if e.Path != "" {
		prefix = e.Path
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(e.Problems, "; "))
}

// Is makes errors.Is(err, ErrInvalidManifest) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidManifest
}

// Load reads and validates a manifest, choosing the decoder by extension.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite manifest: %w", err)
	}

	var m *Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		m, err = ParseCUE(data, path)
	default:
		m, err = ParseYAML(data)
	}
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve manifest directory: %w", err)
	}
	m.Dir = abs

	if err := m.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Path = path
		}
		return nil, err
	}
	return m, nil
}

// ParseYAML decodes a YAML manifest. Unknown keys are rejected.
func ParseYAML(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode suite manifest: %w", err)
	}
	return &m, nil
}

// ParseCUE compiles a CUE manifest and decodes it. The value must be concrete;
// filename is used in error positions.
func ParseCUE(data []byte, filename string) (*Manifest, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile suite manifest: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("suite manifest is not concrete: %w", err)
	}

	var m Manifest
	if err := v.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode suite manifest: %w", err)
	}
	return &m, nil
}

// Validate checks that the manifest can be run.
func (m *Manifest) Validate() error {
	var problems []string
	if m.Timeout < 0 {
		problems = append(problems, fmt.Sprintf("timeout must not be negative, got %d", m.Timeout))
	}
	if len(m.Skills) == 0 {
		problems = append(problems, "no skills defined")
	}

	seen := make(map[string]bool, len(m.Skills))
	for i, s := range m.Skills {
		label := fmt.Sprintf("skills[%d]", i)
		if s.Name == "" {
			problems = append(problems, label+": name is required")
		} else {
			label = fmt.Sprintf("skill %q", s.Name)
			if seen[s.Name] {
				problems = append(problems, label+": duplicate name")
			}
			seen[s.Name] = true
		}
		if s.Examples == "" {
			problems = append(problems, label+": examples is required")
		}
		if strings.TrimSpace(s.Runner) == "" {
			problems = append(problems, label+": runner is required")
		}
		if s.Timeout != nil && *s.Timeout < 0 {
			problems = append(problems, fmt.Sprintf("%s: timeout must not be negative, got %d", label, *s.Timeout))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Config returns the harness configuration for s, with manifest defaults
// applied and the examples path resolved against the manifest directory.
func (m *Manifest) Config(s Skill) harness.Config {
	examples := s.Examples
	if !filepath.IsAbs(examples) && m.Dir != "" {
		examples = filepath.Join(m.Dir, examples)
	}

	fuzzy := m.Fuzzy
	if s.Fuzzy != nil {
		fuzzy = *s.Fuzzy
	}

	seconds := m.Timeout
	if s.Timeout != nil {
		seconds = *s.Timeout
	}

	return harness.Config{
		Examples: examples,
		Runner:   s.Runner,
		Timeout:  time.Duration(seconds) * time.Second,
		Mode:     normalize.FromFuzzy(fuzzy),
	}
}
