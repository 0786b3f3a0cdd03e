package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileFiresAfterChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.db")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fired := make(chan struct{}, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- File(ctx, path, 50*time.Millisecond, func() {
			select {
			case fired <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher a moment to register, then modify the file.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatalf("callback did not fire after file change")
	}
	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("watch returned unexpected error: %v", err)
	}
}

func TestFileIgnoresSiblingChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.db")
	sibling := filepath.Join(dir, "other.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fired := make(chan struct{}, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()

	go func() {
		_ = File(ctx, path, 50*time.Millisecond, func() {
			select {
			case fired <- struct{}{}:
			default:
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(sibling, []byte("noise"), 0o644); err != nil {
		t.Fatalf("write sibling: %v", err)
	}

	select {
	case <-fired:
		t.Fatalf("callback fired for a sibling file change")
	case <-ctx.Done():
	}
}

func TestFileReturnsErrorForMissingDirectory(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := File(ctx, filepath.Join(t.TempDir(), "nope", "watched.db"), 50*time.Millisecond, func() {})
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
