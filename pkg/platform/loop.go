package platform

import (
	"context"
	"sync"

	"github.com/go-drift/shellconf/pkg/errors"
)

// Loop serializes work onto a single goroutine. The engine is not
// thread-safe; every mutation (reloads, edit-mode changes, notifications
// from a toolkit running elsewhere) reaches it through Dispatch and runs
// inside Run.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
}

// NewLoop creates an idle loop. Callbacks queue up until Run is called.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Dispatch schedules callback to run on the loop goroutine.
// Returns false if callback is nil or the loop has stopped.
func (l *Loop) Dispatch(callback func()) bool {
	if callback == nil {
		return false
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, callback)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes dispatched callbacks in order until ctx is done. A panicking
// callback is reported and the loop keeps going. Callbacks still queued when
// ctx ends are dropped. Run returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
	}()
	for {
		for _, cb := range l.drain() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.call(cb)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Pending returns the number of callbacks waiting to run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	callbacks := append([]func(){}, l.queue...)
	l.queue = nil
	l.mu.Unlock()
	return callbacks
}

func (l *Loop) call(cb func()) {
	defer errors.Recover("platform.Loop")
	cb()
}
