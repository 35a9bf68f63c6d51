package storage

import (
	"context"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	key, err := store.Write(ctx, "uploads/s1/shoe.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "uploads/s1/shoe.png" {
		t.Fatalf("unexpected key: %s", key)
	}

	data, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected data: %q", data)
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Read(ctx, key); err == nil {
		t.Fatal("expected read error after removal")
	}
	// Idempotent removal.
	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Write(context.Background(), "../escape.png", []byte("x")); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
	if _, err := store.Read(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}
