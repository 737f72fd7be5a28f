package lock

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.lock")
	l := NewFileLocker()

	release, err := l.Acquire(context.Background(), path, time.Second)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if err := release(); err != nil {
		t.Fatalf("Release error: %v", err)
	}

	// Reacquire after release must succeed.
	release, err = l.Acquire(context.Background(), path, time.Second)
	if err != nil {
		t.Fatalf("reacquire error: %v", err)
	}
	if err := release(); err != nil {
		t.Fatalf("Release error: %v", err)
	}
}

func TestAcquireCreatesLockDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "registry.lock")
	l := NewFileLocker()

	release, err := l.Acquire(context.Background(), path, time.Second)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if err := release(); err != nil {
		t.Fatalf("Release error: %v", err)
	}
}

func TestSerializedAcquisition(t *testing.T) {
	// Two sequential holders never overlap: the second Acquire only
	// returns after the first Release.
	path := filepath.Join(t.TempDir(), "registry.lock")
	l := NewFileLocker()

	release1, err := l.Acquire(context.Background(), path, time.Second)
	if err != nil {
		t.Fatalf("first Acquire error: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		release2, err := l.Acquire(context.Background(), path, 5*time.Second)
		if err != nil {
			t.Errorf("second Acquire error: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		_ = release2()
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire returned while first lock still held")
	case <-time.After(200 * time.Millisecond):
	}

	if err := release1(); err != nil {
		t.Fatalf("Release error: %v", err)
	}

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("second Acquire never completed after release")
	}
}
