// Package watch drives repeated indexing from file-system events. It is
// not a new indexing algorithm (spec §4.12): it batches fsnotify events
// over a debounce window and calls a supplied update function once per
// batch, letting the existing differential indexer and its §4.7/§5
// invariants do all the real work per cycle.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// UpdateFunc runs one indexing cycle. Errors are logged, not fatal: a
// watch loop outlives any single failed cycle.
type UpdateFunc func(ctx context.Context) error

// Watcher batches file-system events under root into debounced calls to
// an UpdateFunc.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	ignore    []string
	debounce  time.Duration
	update    UpdateFunc

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a Watcher rooted at root, ignoring any path matching an
// doublestar glob in ignore, and registers recursive directory watches.
func New(root string, debounce time.Duration, ignore []string, update UpdateFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: new fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		root:      root,
		ignore:    ignore,
		debounce:  debounce,
		update:    update,
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree registers a watch on root and every non-ignored subdirectory.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entry: skip, don't abort the whole walk
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			log.Printf("watch: add watch for %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

// Run processes events until ctx is cancelled or the underlying fsnotify
// watcher errors unrecoverably. Every batch of events within the debounce
// window collapses into exactly one call to the Watcher's UpdateFunc.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsWatcher.Close()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return ctx.Err()

		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if w.ignored(ev.Name) {
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				log.Printf("watch: add watch for new directory %s: %v", ev.Name, err)
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.trigger(ctx) })
}

func (w *Watcher) trigger(ctx context.Context) {
	if err := w.update(ctx); err != nil {
		log.Printf("watch: update cycle failed: %v", err)
	}
}
