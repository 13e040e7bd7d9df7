// Package watch re-runs a callback whenever spreadsheet files under a root
// directory change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dkoosis/qatally/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the tree must stay quiet before a rerun.
const DefaultDebounce = 500 * time.Millisecond

// Options tunes Run.
type Options struct {
	Include  []string
	Exclude  []string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Run watches root recursively and calls fn once per burst of changes to
// matching files. It blocks until ctx is done and returns nil then; an
// error means the watch could not be set up.
func Run(ctx context.Context, root string, opts Options, fn func(context.Context)) error {
	log := logging.OrDiscard(opts.Logger)
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := addTree(w, root); err != nil {
		return err
	}
	log.Info("watching", "root", root, "debounce", debounce)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						log.Warn("watch directory", "dir", ev.Name, "error", err)
					}
					continue
				}
			}
			if ev.Op == fsnotify.Chmod || !matches(root, ev.Name, opts.Include, opts.Exclude) {
				continue
			}
			log.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)

		case <-timer.C:
			fn(ctx)
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func matches(root, path string, include, exclude []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	in := false
	for _, p := range include {
		if ok, _ := doublestar.Match(p, rel); ok {
			in = true
			break
		}
	}
	if !in {
		return false
	}
	for _, p := range exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	return true
}
