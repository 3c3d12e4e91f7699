package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-drift/shellconf/pkg/document"
)

func mustWrite(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// waitFor polls cond until it holds or timeout passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting: %s", msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// holdsFalse fails if cond becomes true within d.
func holdsFalse(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			t.Fatal(msg)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func startWatcher(t *testing.T, path string, debounce time.Duration) *atomic.Int32 {
	t.Helper()
	var fired atomic.Int32
	w, err := New(Options{Path: path, Debounce: debounce, OnChange: func() { fired.Add(1) }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		w.Close()
	})
	return &fired
}

func TestWatcher_FiresOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.xml")
	mustWrite(t, path, document.DefaultBytes())
	fired := startWatcher(t, path, 20*time.Millisecond)

	mustWrite(t, path, []byte("<Root/>"))
	waitFor(t, 5*time.Second, func() bool { return fired.Load() >= 1 }, "write was not reported")
}

func TestWatcher_FiresOnAtomicReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.xml")
	fired := startWatcher(t, path, 20*time.Millisecond)

	if err := document.WriteFile(path, document.Default()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 5*time.Second, func() bool { return fired.Load() >= 1 }, "atomic replace was not reported")
}

func TestWatcher_Debounces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.xml")
	fired := startWatcher(t, path, 300*time.Millisecond)

	for range 5 {
		mustWrite(t, path, document.DefaultBytes())
	}
	waitFor(t, 5*time.Second, func() bool { return fired.Load() >= 1 }, "burst was not reported")
	holdsFalse(t, 500*time.Millisecond, func() bool { return fired.Load() > 1 }, "burst of writes fired more than once")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	fired := startWatcher(t, filepath.Join(dir, "layout.xml"), 20*time.Millisecond)

	mustWrite(t, filepath.Join(dir, "other.xml"), []byte("x"))
	holdsFalse(t, 300*time.Millisecond, func() bool { return fired.Load() > 0 }, "sibling file change was reported")
}

func TestWatcher_CloseCancelsPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.xml")
	var fired atomic.Int32
	w, err := New(Options{Path: path, Debounce: 200 * time.Millisecond, OnChange: func() { fired.Add(1) }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	go w.Run(context.Background())

	mustWrite(t, path, []byte("x"))
	time.Sleep(50 * time.Millisecond)
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	holdsFalse(t, 400*time.Millisecond, func() bool { return fired.Load() > 0 }, "change fired after Close")
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no path", Options{OnChange: func() {}}},
		{"no callback", Options{Path: filepath.Join(t.TempDir(), "layout.xml")}},
		{"missing dir", Options{Path: filepath.Join(t.TempDir(), "missing", "layout.xml"), OnChange: func() {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}
