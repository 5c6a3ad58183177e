package driver

import (
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// WatchOp is the set of filesystem operations that can trigger a
// recompile.
type WatchOp uint8

const (
	OpCreate WatchOp = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// WatchEvent is one filesystem change forwarded from the underlying
// fsnotify.Watcher.
type WatchEvent struct {
	Path string
	Op   WatchOp
}

// Watcher wraps fsnotify.Watcher: a goroutine translates raw
// fsnotify.Event values into the typed WatchEvent/error channel pair
// the driver's main loop selects on.
type Watcher struct {
	w   *fsnotify.Watcher
	evC chan WatchEvent
	erC chan error
}

// NewWatcher creates a Watcher with no paths registered yet.
func NewWatcher() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating filesystem watcher")
	}
	watcher := &Watcher{w: w, evC: make(chan WatchEvent, 64), erC: make(chan error, 1)}
	go watcher.loop()
	return watcher, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			var op WatchOp
			if ev.Op&fsnotify.Create != 0 {
				op |= OpCreate
			}
			if ev.Op&fsnotify.Write != 0 {
				op |= OpWrite
			}
			if ev.Op&fsnotify.Remove != 0 {
				op |= OpRemove
			}
			if ev.Op&fsnotify.Rename != 0 {
				op |= OpRename
			}
			if ev.Op&fsnotify.Chmod != 0 {
				op |= OpChmod
			}
			w.evC <- WatchEvent{Path: ev.Name, Op: op}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.erC <- err
		}
	}
}

// Events returns the channel of translated filesystem events.
func (w *Watcher) Events() <-chan WatchEvent { return w.evC }

// Errors returns the channel of underlying fsnotify errors.
func (w *Watcher) Errors() <-chan error { return w.erC }

// Add registers a path (file or directory) for notifications.
func (w *Watcher) Add(path string) error { return w.w.Add(path) }

// Close stops the watcher and its forwarding goroutine.
func (w *Watcher) Close() error { return w.w.Close() }
