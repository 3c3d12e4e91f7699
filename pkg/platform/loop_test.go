package platform

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-drift/shellconf/pkg/errors"
)

type panicRecorder struct {
	errors.LogHandler
	mu     sync.Mutex
	panics []*errors.PanicError
}

func (h *panicRecorder) HandlePanic(p *errors.PanicError) {
	h.mu.Lock()
	h.panics = append(h.panics, p)
	h.mu.Unlock()
}

func startLoop(t *testing.T) (*Loop, context.CancelFunc, <-chan error) {
	t.Helper()
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	t.Cleanup(cancel)
	return l, cancel, done
}

func TestLoop_RunsInOrder(t *testing.T) {
	l, cancel, done := startLoop(t)

	var got []int
	finished := make(chan struct{})
	for i := range 100 {
		l.Dispatch(func() { got = append(got, i) })
	}
	l.Dispatch(func() { close(finished) })

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("callbacks did not run")
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("callback %d ran at position %d", v, i)
		}
	}
	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}

func TestLoop_QueuedBeforeRun(t *testing.T) {
	l := NewLoop()
	ran := make(chan struct{})
	l.Dispatch(func() { close(ran) })
	if l.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", l.Pending())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("queued callback did not run")
	}
}

func TestLoop_PanicIsReported(t *testing.T) {
	h := &panicRecorder{}
	errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(nil) })

	l, _, _ := startLoop(t)
	after := make(chan struct{})
	l.Dispatch(func() { panic("boom") })
	l.Dispatch(func() { close(after) })

	select {
	case <-after:
	case <-time.After(5 * time.Second):
		t.Fatal("loop stopped after a panic")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.panics) != 1 || h.panics[0].Op != "platform.Loop" || h.panics[0].Value != "boom" {
		t.Errorf("panics = %+v", h.panics)
	}
}

func TestLoop_DispatchAfterStop(t *testing.T) {
	l, cancel, done := startLoop(t)
	cancel()
	<-done
	if l.Dispatch(func() {}) {
		t.Error("Dispatch should fail once the loop has stopped")
	}
	if l.Dispatch(nil) {
		t.Error("Dispatch(nil) should fail")
	}
}

func TestDispatch_Registered(t *testing.T) {
	t.Cleanup(func() { RegisterDispatch(nil) })
	if Dispatch(func() {}) {
		t.Error("Dispatch without a registered loop should fail")
	}
	RegisterDispatch(func(cb func()) bool { cb(); return true })
	ran := false
	if !Dispatch(func() { ran = true }) || !ran {
		t.Error("registered dispatch should run the callback")
	}
}
