package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCreatesDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	p, err := Open(dir)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer func() { _ = p.Close() }()

	if p.DBPath != filepath.Join(dir, ProjectDBFileName) {
		t.Fatalf("unexpected db path %q", p.DBPath)
	}
	if fi, err := os.Stat(p.DBPath); err != nil || !fi.Mode().IsRegular() {
		t.Fatalf("expected database file at %s: %v", p.DBPath, err)
	}
	if !IsProjectDir(dir) {
		t.Fatalf("IsProjectDir should report true after Open")
	}

	created, err := p.CreatedAt(context.Background())
	if err != nil {
		t.Fatalf("CreatedAt error: %v", err)
	}
	if created.IsZero() {
		t.Fatalf("expected created_at to be recorded")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	p, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Reopening must not fail or recreate the schema destructively.
	p2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer func() { _ = p2.Close() }()
}

func TestOpenFailsOnMissingDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist"))
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestOpenFailsOnEmptyDirArgument(t *testing.T) {
	if _, err := Open("   "); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestOpenFailsOnCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(ProjectDBPath(dir), []byte("this is definitely not a database"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	_, err := Open(dir)
	if !errors.Is(err, ErrStorageCorrupt) {
		t.Fatalf("expected ErrStorageCorrupt, got %v", err)
	}
}

func TestRelativePath(t *testing.T) {
	dir := t.TempDir()
	p, err := Open(dir)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer func() { _ = p.Close() }()

	inside := filepath.Join(dir, "sub", "file.bin")
	if got := p.RelativePath(inside); got != filepath.Join("sub", "file.bin") {
		t.Fatalf("inside path: got %q", got)
	}
	outside := filepath.Join(filepath.Dir(dir), "elsewhere", "file.bin")
	if got := p.RelativePath(outside); got != outside {
		t.Fatalf("outside path should be unchanged: got %q", got)
	}
	parent := filepath.Dir(dir)
	if got := p.RelativePath(parent); got != parent {
		t.Fatalf("parent dir should be unchanged: got %q", got)
	}
	if got := p.RelativePath(dir); got != "." {
		t.Fatalf("project dir itself: got %q", got)
	}
}

func TestWritesVisibleAcrossHandles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	p1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open p1: %v", err)
	}
	if err := p1.SetValue(ctx, "probe", "durable"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := p1.Close(); err != nil {
		t.Fatalf("Close p1: %v", err)
	}

	p2, err := Open(dir)
	if err != nil {
		t.Fatalf("Open p2: %v", err)
	}
	defer func() { _ = p2.Close() }()
	v, err := p2.GetValue(ctx, "probe", nil)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if v != "durable" {
		t.Fatalf("write not visible through second handle: got %#v", v)
	}
}

func TestCloseIsSafeToCallTwice(t *testing.T) {
	dir := t.TempDir()
	p, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close should be a no-op: %v", err)
	}
}
