package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDebouncerTrigger(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called int
	var mu sync.Mutex

	for i := 0; i < 5; i++ {
		d.Trigger(func() {
			mu.Lock()
			called++
			mu.Unlock()
		})
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if called != 1 {
		t.Errorf("called %d times, want 1", called)
	}
	if d.Pending() {
		t.Error("Pending() = true after the function ran")
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called bool
	var mu sync.Mutex
	d.Trigger(func() {
		mu.Lock()
		called = true
		mu.Unlock()
	})
	if !d.Pending() {
		t.Fatal("Pending() = false after Trigger")
	}
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if called {
		t.Error("function ran after Cancel")
	}
}

func TestDebouncerFlush(t *testing.T) {
	d := NewDebouncer(time.Second)

	called := false
	d.Trigger(func() { called = true })
	d.Flush()

	if !called {
		t.Error("function did not run on Flush")
	}

	// Nothing pending
	d.Flush()
	d.Cancel()
}

func TestWatcherDispatchesSettledChange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "index.scip")
	if err := os.WriteFile(target, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 4)
	w, err := New(target, 50*time.Millisecond, nil, func(ctx context.Context) {
		fired <- struct{}{}
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Unrelated files in the same directory are ignored
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte("v2"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("change was not dispatched")
	}

	time.Sleep(200 * time.Millisecond)
	if n := w.Changes(); n != 1 {
		t.Errorf("Changes() = %d, want 1", n)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "index.scip"), time.Millisecond, nil, func(context.Context) {})
	if err == nil {
		t.Fatal("expected error for a missing directory")
	}
}
