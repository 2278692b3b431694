// Package watch re-renders diagram sources as they change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet window before a changed source is
// re-rendered. Editors write files in bursts; rendering each burst once
// is enough.
const DefaultDebounce = 500 * time.Millisecond

// SourceWatcher watches a directory tree for .puml changes and invokes
// the render callback once per changed file after a debounce window.
// Each path debounces independently so editing one diagram does not
// delay another's render.
type SourceWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onSource func(path string)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewSourceWatcher creates a watcher. onSource is called with the path
// of each changed diagram source.
func NewSourceWatcher(debounce time.Duration, onSource func(path string)) (*SourceWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &SourceWatcher{
		watcher:  w,
		debounce: debounce,
		onSource: onSource,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// WatchRecursive adds a directory and all its subdirectories.
func (w *SourceWatcher) WatchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}

// Run blocks processing events until the context is cancelled.
func (w *SourceWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.WatchRecursive(event.Name)
					continue
				}
			}

			if !isDiagramSource(event.Name) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// schedule arms or resets the per-path debounce timer.
func (w *SourceWatcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		if w.onSource != nil {
			w.onSource(path)
		}
	})
}

func (w *SourceWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.timers {
		t.Stop()
	}
}

// isDiagramSource reports whether a path names a PlantUML source,
// skipping editor temp files.
func isDiagramSource(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return filepath.Ext(base) == ".puml"
}
