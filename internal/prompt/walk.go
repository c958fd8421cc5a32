// Package prompt concatenates a project tree into a single text prompt.
package prompt

import (
	"io/fs"
	"path"
	"slices"
)

// Filter reports whether an entry should be kept. name is the base name.
// Returning false for a directory prunes the whole subtree.
type Filter func(name string, isDir bool) bool

// Default exclusions: generated simulation traces, earlier prompt output and
// the helper scripts themselves.
var (
	DefaultExcludedFiles = []string{
		"ssm_vehA.xml",
		"ssm_vehB.xml",
		"prompt_output.txt",
		"highway_fcd.xml",
		"highway.net.xml",
		"prompt.py",
		"script.sh",
	}
	DefaultExcludedDirs = []string{"results", "logs"}
)

// DefaultFilter applies the default exclusion lists.
var DefaultFilter = ExcludeNames(DefaultExcludedFiles, DefaultExcludedDirs)

// ExcludeNames builds a Filter rejecting files and directories by exact base
// name at any depth.
func ExcludeNames(files, dirs []string) Filter {
	files = slices.Clone(files)
	dirs = slices.Clone(dirs)
	return func(name string, isDir bool) bool {
		if isDir {
			return !slices.Contains(dirs, name)
		}
		return !slices.Contains(files, name)
	}
}

// Walk returns the files under root that keep passes, as slash-separated
// paths relative to root, in lexical order. Symlinks are listed unless they
// resolve to a directory; a dangling link is listed so the reader can report
// it. Other special files are ignored. The root itself is never filtered and
// a subdirectory that cannot be read is skipped. A nil filter keeps
// everything.
func Walk(fsys fs.FS, root string, keep Filter) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			logf("skipping %s: %v", p, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}
		isDir, listed := classify(fsys, p, d)
		if !listed {
			return nil
		}
		if keep != nil && !keep(d.Name(), isDir) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if isDir {
			return nil
		}
		rel := p
		if root != "." {
			rel = p[len(path.Clean(root))+1:]
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// classify reports whether the entry at p counts as a directory and whether
// it takes part in the walk at all. Links to directories are not followed.
func classify(fsys fs.FS, p string, d fs.DirEntry) (isDir, listed bool) {
	switch t := d.Type(); {
	case t.IsDir():
		return true, true
	case t.IsRegular():
		return false, true
	case t&fs.ModeSymlink != 0:
		info, err := fs.Stat(fsys, p)
		if err != nil {
			return false, true
		}
		return info.IsDir(), info.IsDir() || info.Mode().IsRegular()
	default:
		return false, false
	}
}
