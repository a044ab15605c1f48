// Package watcher watches the rule tuning file for changes with debouncing,
// so the serving process can rebuild its intent mapper when an operator
// edits rule tuning. Each mapper's rule list stays fixed for its lifetime;
// a reload constructs a new mapper.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadHandler is invoked once per debounced change burst.
type ReloadHandler func(path string)

// FileWatcher watches a single file, coalescing rapid change bursts into one
// handler invocation.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	delay    time.Duration
	handlers []ReloadHandler
	mutex    sync.RWMutex
}

// NewFileWatcher creates a watcher for one file. The parent directory is
// watched rather than the file itself, since editors commonly replace files
// on save.
func NewFileWatcher(path string, debounce time.Duration) (*FileWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("watch path is empty")
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		closeErr := fsWatcher.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("watch %s: %w (close: %v)", path, err, closeErr)
		}
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &FileWatcher{
		watcher:  fsWatcher,
		path:     filepath.Clean(path),
		delay:    debounce,
		handlers: make([]ReloadHandler, 0),
	}, nil
}

// AddHandler registers a change handler.
func (fw *FileWatcher) AddHandler(handler ReloadHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// Start runs the watch loop until the context is cancelled.
func (fw *FileWatcher) Start(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(event) {
				continue
			}
			// Coalesce bursts: restart the debounce window on each event
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(fw.delay)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			fw.fire()

		case _, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// relevant filters directory events down to writes and renames of the
// watched file.
func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != fw.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (fw *FileWatcher) fire() {
	fw.mutex.RLock()
	handlers := make([]ReloadHandler, len(fw.handlers))
	copy(handlers, fw.handlers)
	fw.mutex.RUnlock()

	for _, handler := range handlers {
		handler(fw.path)
	}
}

// Close stops the underlying fsnotify watcher.
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
