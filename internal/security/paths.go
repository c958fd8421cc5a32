// Package security guards the paths the command-line tools write to.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a path resolves outside every allowed root.
var ErrPathEscape = errors.New("path escapes allowed directories")

// canonicalPath resolves p to an absolute path with symlinks evaluated. When p
// does not exist yet, the nearest existing ancestor is resolved instead and
// the missing tail is joined back on, so a symlinked parent cannot smuggle a
// new file out of the root.
func canonicalPath(p string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			tail, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, tail), nil
		}
		if parent := filepath.Dir(dir); parent == dir {
			return abs, nil
		}
	}
}

// ValidateWithinDirectory reports an error wrapping ErrPathEscape when path
// does not resolve inside root.
func ValidateWithinDirectory(path, root string) error {
	target, err := canonicalPath(path)
	if err != nil {
		return err
	}
	base, err := canonicalPath(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	rel, err := filepath.Rel(base, target)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPathEscape, path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is outside %s", ErrPathEscape, path, root)
	}
	return nil
}

// ValidateWithinAny accepts path if it lies inside at least one of roots.
func ValidateWithinAny(path string, roots []string) error {
	if len(roots) == 0 {
		return fmt.Errorf("no allowed directories specified")
	}
	for _, root := range roots {
		if err := ValidateWithinDirectory(path, root); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be within one of %v", ErrPathEscape, path, roots)
}

// ValidateOutputPath checks a file or directory the tools are about to write:
// plots, the export database or the prompt file. It must resolve inside the
// working directory or the system temp directory.
func ValidateOutputPath(path string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	return ValidateWithinAny(path, []string{cwd, os.TempDir()})
}

// SanitizeFilename reduces s to ASCII letters, digits, dot, underscore and
// dash. Runs of other characters become one underscore, leading and trailing
// dots or underscores are trimmed, and the result is capped at 128 bytes.
// It never returns an empty string.
func SanitizeFilename(s string) string {
	const maxLen = 128

	var b strings.Builder
	pendingUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		safe := r == '.' || r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !safe {
			if !pendingUnderscore {
				b.WriteByte('_')
				pendingUnderscore = true
			}
			continue
		}
		b.WriteRune(r)
		pendingUnderscore = false
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
