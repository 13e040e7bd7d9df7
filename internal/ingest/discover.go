package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNotDir is returned when the root is missing or is not a directory.
var ErrNotDir = errors.New("not a directory")

// Discover walks root and returns the files whose root-relative slash path
// matches an include pattern and no exclude pattern, in lexical walk order.
// Subdirectories that cannot be read are returned as skipped entries and the
// walk goes on; only an unusable root is an error.
func Discover(root string, include, exclude []string) ([]string, []Skipped, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s: %w", root, ErrNotDir)
	}
	return discoverFS(os.DirFS(root), root, include, exclude)
}

func discoverFS(fsys fs.FS, root string, include, exclude []string) ([]string, []Skipped, error) {
	matchAny := func(name string, pats []string) bool {
		for _, p := range pats {
			if ok, _ := doublestar.Match(p, name); ok {
				return true
			}
		}
		return false
	}

	var files []string
	var skipped []Skipped
	err := fs.WalkDir(fsys, ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			if rel == "." {
				return err
			}
			skipped = append(skipped, Skipped{File: filepath.Join(root, filepath.FromSlash(rel)), Reason: err.Error()})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if matchAny(rel, include) && !matchAny(rel, exclude) {
			files = append(files, filepath.Join(root, filepath.FromSlash(rel)))
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, skipped, nil
}

// FindFile searches dir recursively for a file with the given base name and
// returns the first match in walk order.
func FindFile(dir, name string) (string, bool) {
	if dir == "" {
		return "", false
	}
	var found string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found, found != ""
}
