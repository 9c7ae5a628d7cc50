package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// EventType represents the type of track-file event
type EventType string

const (
	EventCreate EventType = "create"
	EventModify EventType = "modify"
	EventDelete EventType = "delete"
	EventRename EventType = "rename"
)

// Event represents a change to one track file
type Event struct {
	Path string
	Type EventType
}

// Watcher watches the track data directory and reports debounced changes
// to *.track.json files. Callbacks fire on the watcher's own goroutine;
// the caller is responsible for posting any store mutation onto the owner
// loop.
type Watcher struct {
	path       string
	debounce   time.Duration
	callback   func(Event)
	watcher    *fsnotify.Watcher
	log        *logrus.Entry
	done       chan struct{}
	started    bool
	closed     bool
	mu         sync.Mutex
	debouncer  map[string]*time.Timer
	debounceMu sync.Mutex
}

// TrackFileExt is the suffix a file needs to be picked up as track data.
const TrackFileExt = ".track.json"

// New creates a new Watcher over the given track directory
func New(path string, debounce time.Duration, callback func(Event)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch path %s: %w", path, err)
	}

	return &Watcher{
		path:      path,
		debounce:  debounce,
		callback:  callback,
		watcher:   fsw,
		log:       logrus.WithField("component", "watcher"),
		done:      make(chan struct{}),
		debouncer: make(map[string]*time.Timer),
	}, nil
}

// Start starts watching for events
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("watcher is closed")
	}
	if w.started {
		return fmt.Errorf("watcher already started")
	}
	w.started = true

	go w.watch()
	return nil
}

// Close stops watching and cleans up resources
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.started {
		close(w.done)
	}

	// Cancel all pending debounce timers
	w.debounceMu.Lock()
	for _, timer := range w.debouncer {
		timer.Stop()
	}
	w.debouncer = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	return w.watcher.Close()
}

// watch is the main event loop
func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watch error, continuing")

		case <-w.done:
			return
		}
	}
}

// handleEvent filters and debounces a fsnotify event
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !IsTrackFile(event.Name) {
		return
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventModify
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		eventType = EventDelete
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = EventRename
	default:
		return
	}

	w.debounceEvent(Event{Path: event.Name, Type: eventType})
}

// debounceEvent coalesces rapid events for the same file
func (w *Watcher) debounceEvent(e Event) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debouncer[e.Path]; exists {
		timer.Stop()
	}

	w.debouncer[e.Path] = time.AfterFunc(w.debounce, func() {
		w.debounceMu.Lock()
		delete(w.debouncer, e.Path)
		w.debounceMu.Unlock()

		w.callback(e)
	})
}

// IsTrackFile reports whether path looks like track data.
func IsTrackFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), TrackFileExt)
}

// CurveName derives the curve name from a track file path
// ("/data/GateL.track.json" -> "GateL").
func CurveName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), TrackFileExt)
}
