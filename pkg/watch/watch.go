// Package watch reports changes to the shell layout document on disk.
//
// Editors and the engine's own Save replace the file rather than write it in
// place, so the watcher observes the containing directory and filters events
// by file name. Bursts of events are coalesced: OnChange fires once the file
// has been quiet for the debounce interval.
package watch

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/containerd/log"
	"github.com/fsnotify/fsnotify"

	"github.com/go-drift/shellconf/pkg/errors"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 250 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Path is the document file to watch. Its directory must exist.
	Path string

	// Debounce is the quiet period before OnChange fires.
	Debounce time.Duration

	// OnChange is called from a timer goroutine after the file changed.
	// Callers that touch the engine should hand off to a platform.Loop.
	OnChange func()
}

// Watcher watches a single document file.
type Watcher struct {
	fs       *fsnotify.Watcher
	name     string
	debounce time.Duration
	onChange func()

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// New starts watching opts.Path. Events are only processed while Run is
// running.
func New(opts Options) (*Watcher, error) {
	if opts.Path == "" {
		return nil, stderrors.New("watch: no path")
	}
	if opts.OnChange == nil {
		return nil, stderrors.New("watch: no OnChange callback")
	}
	abs, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, err
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, err
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fs:       fs,
		name:     filepath.Base(abs),
		debounce: debounce,
		onChange: opts.OnChange,
	}, nil
}

// Run processes file system events until ctx is done or the watcher is
// closed. Watch errors are reported and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != w.name || !relevant(ev) {
				continue
			}
			log.G(ctx).WithField("event", ev.Op.String()).Debug("layout document changed")
			w.schedule()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			errors.Report(&errors.ShellError{Op: "watch.Run", Kind: errors.KindWatch, Err: err})
		}
	}
}

// Close stops watching and cancels a pending OnChange.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	return w.fs.Close()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	closed := w.closed
	w.timer = nil
	w.mu.Unlock()
	if !closed {
		w.onChange()
	}
}

func relevant(ev fsnotify.Event) bool {
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}
