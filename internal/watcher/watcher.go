// Package watcher monitors manifest sources and the output root for changes
// and broadcasts events via callbacks.
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/treeforge/treeforge/internal/config"
)

// EventType represents the type of file system event.
type EventType int

// File system event types.
const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

// Event represents a file system change event.
type Event struct {
	Type EventType
	Path string
}

// Callback is a function called when file changes occur.
type Callback func(Event)

// Watcher monitors manifest source directories and the materialization
// output root.
type Watcher struct {
	watcher   *fsnotify.Watcher
	cfg       *config.Config
	callbacks []Callback
	mu        sync.RWMutex
	done      chan struct{}
}

// New creates a new file system watcher.
func New(cfg *config.Config) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher: w,
		cfg:     cfg,
		done:    make(chan struct{}),
	}, nil
}

// OnChange registers a callback for file change events.
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching the output root and all local sources. Sources with
// a git ref are skipped: they read from the object database, not the
// working tree.
func (w *Watcher) Start() error {
	roots := []string{w.cfg.Output}
	for _, src := range w.cfg.Sources {
		if src.Ref != "" {
			continue
		}
		roots = append(roots, src.Path)
	}

	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !w.cfg.IsExcluded(path) {
				if err := w.watcher.Add(path); err != nil {
					log.Printf("Warning: cannot watch %s: %v", path, err)
				}
			}
			return nil
		})
		if err != nil {
			log.Printf("Warning: failed to walk %s: %v", root, err)
		}
	}

	go w.eventLoop()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.cfg.IsExcluded(event.Name) {
		return
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreate
		// Newly created directories need their own watch for materialized
		// subtrees to keep reporting.
		if isDir(event.Name) {
			_ = w.watcher.Add(event.Name)
		}
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventWrite
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		eventType = EventRemove
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = EventRename
	default:
		return
	}

	e := Event{Type: eventType, Path: event.Name}

	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
