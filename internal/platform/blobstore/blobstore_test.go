package blobstore

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestInMemoryStore_SaveAndOpen(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	key, err := store.Save(ctx, "chest.png", "image/png", bytes.NewReader([]byte("png-bytes")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Errorf("expected key to keep extension, got %s", key)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "png-bytes" {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestInMemoryStore_OpenMissing(t *testing.T) {
	store := NewInMemoryStore()
	if _, err := store.Open(context.Background(), "nope.png"); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestSave_RejectsContentType(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Save(context.Background(), "report.pdf", "application/pdf", bytes.NewReader([]byte("x")))
	if err != ErrInvalidContentType {
		t.Errorf("expected ErrInvalidContentType, got %v", err)
	}
}

func TestSave_RejectsMissingFileName(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Save(context.Background(), "", "image/png", bytes.NewReader([]byte("x")))
	if err != ErrMissingFileName {
		t.Errorf("expected ErrMissingFileName, got %v", err)
	}
}

func TestSave_KeysAreUnique(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	k1, _ := store.Save(ctx, "a.png", "image/png", bytes.NewReader([]byte("1")))
	k2, _ := store.Save(ctx, "a.png", "image/png", bytes.NewReader([]byte("2")))
	if k1 == k2 {
		t.Error("expected distinct keys for repeated uploads of the same file name")
	}
}

func TestFilesystemStore_RoundTrip(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore: %v", err)
	}
	ctx := context.Background()

	key, err := store.Save(ctx, "scan.jpeg", "image/jpeg", bytes.NewReader([]byte("jpeg-bytes")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "jpeg-bytes" {
		t.Errorf("content mismatch: %q", data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, key); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound after delete, got %v", err)
	}
}

func TestFilesystemStore_RejectsPathTraversal(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore: %v", err)
	}

	if _, err := store.Open(context.Background(), "../etc/passwd"); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound for traversal key, got %v", err)
	}
}
