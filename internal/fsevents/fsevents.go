// Package fsevents implements the filesystem-change notifier
// collaborator (§6): it watches indexed directories and translates
// create/remove/rename events into calls on the engine's
// enqueue_add/enqueue_del operations (§4.5).
package fsevents

import (
	"log"

	"github.com/fsnotify/fsnotify"
)

// Enqueuer is the subset of *engine.Index the notifier drives; kept as
// an interface so tests can substitute a fake without pulling in a real
// Index.
type Enqueuer interface {
	EnqueueAdd(path string) error
	EnqueueDel(path string) error
}

// Watcher wraps an *fsnotify.Watcher, feeding its events into an
// Enqueuer.
type Watcher struct {
	fsw *fsnotify.Watcher
	ix  Enqueuer
	log *log.Logger
	done chan struct{}
}

// New creates a Watcher over the given roots, driving ix.
func New(ix Enqueuer, logger *log.Logger, roots ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, r := range roots {
		if err := fsw.Add(r); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return &Watcher{fsw: fsw, ix: ix, log: logger, done: make(chan struct{})}, nil
}

// Run drains events until Close is called. Intended to run in its own
// goroutine, one per Watcher.
func (w *Watcher) Run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Printf("fsevents: %v", err)
			}
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	var err error
	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		err = w.ix.EnqueueAdd(ev.Name)
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		err = w.ix.EnqueueDel(ev.Name)
	}
	if err != nil && w.log != nil {
		w.log.Printf("fsevents: enqueue %s: %v", ev.Name, err)
	}
}

// Close stops Run and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
