// Package watch notifies the server when harness or bundle files change
// on disk, so connected browsers can be told to reload.
package watch

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/blake3"
)

// Watcher watches a set of directory trees and invokes OnChange after a
// debounce window once file contents actually change. Events that rewrite
// a file with identical bytes are suppressed via a per-file blake3
// digest, since editors and build tools frequently touch files without
// changing them.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dirs     []string
	debounce time.Duration
	onChange func()

	mu      sync.Mutex
	digests map[string][32]byte
}

// New creates a watcher over dirs. Directories that do not exist are
// skipped rather than treated as errors, since the module root may only
// appear after a later WASM build.
func New(dirs []string, debounce time.Duration, onChange func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  w,
		dirs:     dirs,
		debounce: debounce,
		onChange: onChange,
		digests:  make(map[string][32]byte),
	}, nil
}

// Start blocks, dispatching events until Stop is called. Run it in its
// own goroutine.
func (w *Watcher) Start() {
	for _, dir := range w.dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				// Skip hidden directories like .git
				if filepath.Base(path)[0] == '.' && path != "." {
					return filepath.SkipDir
				}
				return w.watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			slog.Warn("Error walking watch directory", "dir", dir, "error", err)
		}
	}

	var timer *time.Timer
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Ignore chmod and other meta events
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}

			// Handle new directories
			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					_ = w.watcher.Add(event.Name)
				}
			}

			if !w.Changed(event.Name) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.onChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

// Stop closes the underlying watcher, which unblocks Start.
func (w *Watcher) Stop() {
	if err := w.watcher.Close(); err != nil {
		slog.Warn("Failed to close file watcher", "error", err)
	}
}

// Changed reports whether name's contents differ from the last time it
// was seen. Deleted, unreadable, and directory paths always count as
// changed.
func (w *Watcher) Changed(name string) bool {
	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		w.mu.Lock()
		delete(w.digests, name)
		w.mu.Unlock()
		return true
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return true
	}
	sum := blake3.Sum256(data)

	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.digests[name]; ok && prev == sum {
		return false
	}
	w.digests[name] = sum
	return true
}
