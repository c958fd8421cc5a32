package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/collision.report/internal/fsutil"
)

// Rules overrides the builder defaults. Nil fields keep the default; an
// explicit empty list clears it.
type Rules struct {
	Preamble      *string   `yaml:"preamble"`
	ExcludedFiles *[]string `yaml:"excluded_files"`
	ExcludedDirs  *[]string `yaml:"excluded_dirs"`
}

// LoadRules reads a YAML rules file from fsys. Unknown keys are rejected.
func LoadRules(fsys fsutil.FileSystem, path string) (*Rules, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rules. An empty document yields empty rules.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return &r, nil
}

// Apply returns a copy of b with the rules applied.
func (r *Rules) Apply(b *Builder) *Builder {
	out := *b
	if r == nil {
		return &out
	}
	if r.Preamble != nil {
		out.Preamble = *r.Preamble
	}
	if r.ExcludedFiles != nil || r.ExcludedDirs != nil {
		files, dirs := DefaultExcludedFiles, DefaultExcludedDirs
		if r.ExcludedFiles != nil {
			files = *r.ExcludedFiles
		}
		if r.ExcludedDirs != nil {
			dirs = *r.ExcludedDirs
		}
		out.Filter = ExcludeNames(files, dirs)
	}
	return &out
}
