package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	ioutils "github.com/handiism/concert-scanner/internal/io"
)

// State is the lifecycle stage of a Watcher.
type State int

const (
	StateIdle State = iota
	StateObserving
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateObserving:
		return "observing"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrNotIdle is returned by Start when the watcher was already started.
var ErrNotIdle = errors.New("watcher already started")

// Handler is called with the absolute path of each new image file.
type Handler func(path string)

// Watcher reports image files added to a single directory.
type Watcher struct {
	dir     string
	exts    ioutils.ExtensionSet
	handler Handler
	onError func(error)

	mu     sync.Mutex
	state  State
	fsw    *fsnotify.Watcher
	g      *errgroup.Group
	cancel context.CancelFunc
}

// NewWatcher creates an idle watcher for dir.
func NewWatcher(dir string, exts ioutils.ExtensionSet, handler Handler) *Watcher {
	return &Watcher{dir: dir, exts: exts, handler: handler}
}

// OnError sets a callback for errors reported by the notification source.
// Must be called before Start.
func (w *Watcher) OnError(fn func(error)) {
	w.onError = fn
}

// State returns the current lifecycle stage.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Backlog lists the image files already in the directory, sorted by name.
// Symlinks to regular files are included; subdirectories are not
// descended into.
func (w *Watcher) Backlog() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !w.exts.Match(entry.Name()) {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		// Stat follows symlinks, same as dispatch.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

// Start begins observing the directory. Events are handled one at a time
// on a single goroutine until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateIdle {
		return fmt.Errorf("%w (state %s)", ErrNotIdle, w.state)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	g := new(errgroup.Group)
	g.Go(func() error {
		w.loop(ctx, fsw)
		return nil
	})

	w.fsw = fsw
	w.g = g
	w.cancel = cancel
	w.state = StateObserving
	return nil
}

// Stop ends observation and waits for the event goroutine to return. A
// handler that is already running completes first. Stop is idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.state != StateObserving {
		w.state = StateStopped
		w.mu.Unlock()
		return nil
	}
	w.state = StateStopped
	fsw, g, cancel := w.fsw, w.g, w.cancel
	w.mu.Unlock()

	cancel()
	err := fsw.Close()
	if werr := g.Wait(); werr != nil && err == nil {
		err = werr
	}
	return err
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			// Stop may have been requested while the previous handler ran.
			if ctx.Err() != nil {
				return
			}
			w.dispatch(event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) dispatch(path string) {
	if !w.exts.Match(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	w.handler(path)
}
