// Package filesystem watches a local directory for chapter files to digest.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/digest-cli/internal/logger"
)

// DefaultSettle is how long a file must stay unchanged before it is emitted.
const DefaultSettle = 2 * time.Second

// Watcher emits the paths of files dropped into a directory once they
// stop changing.
type Watcher struct {
	root     string
	supports func(name string) bool
	settle   time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	watcher *fsnotify.Watcher
}

// New creates a watcher for root. supports filters file names; nil accepts
// every regular file.
func New(root string, supports func(name string) bool, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if supports == nil {
		supports = func(string) bool { return true }
	}
	return &Watcher{
		root:     root,
		supports: supports,
		settle:   settle,
		pending:  make(map[string]*time.Timer),
	}
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Existing lists supported files already present in the root, sorted by name.
func (w *Watcher) Existing() ([]string, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", w.root, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !w.accepts(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(w.root, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Watch starts watching and returns a channel of settled file paths.
// The channel is closed when ctx ends.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(w.root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.root, err)
	}
	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()

	settled := make(chan string)
	ready := make(chan string, 16)
	done := make(chan struct{})

	go func() {
		defer close(settled)
		defer close(done)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if path, ok := w.handleFsEvent(event); ok {
					w.schedule(path, ready, done)
				}
			case path := <-ready:
				select {
				case settled <- path:
				case <-ctx.Done():
					return
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				logger.Warn("watch %s: %v", w.root, err)
			}
		}
	}()

	return settled, nil
}

// handleFsEvent reports the file an event concerns when it should be
// digested. Removals, renames, directories and hidden files are ignored.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if !w.accepts(filepath.Base(event.Name)) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

// schedule restarts the settle timer for path.
func (w *Watcher) schedule(path string, ready chan<- string, done <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case ready <- path:
		case <-done:
		}
	})
}

func (w *Watcher) accepts(name string) bool {
	return !strings.HasPrefix(name, ".") && w.supports(name)
}

// Close stops the underlying watcher and any pending timers.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}
