package upload

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDiskStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(filepath.Join(dir, "gallery"), "http://localhost:8080/media/", 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	url, err := store.Upload(context.Background(), pngFile("a.png", 32))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:8080/media/") {
		t.Fatalf("url = %q", url)
	}
	name := strings.TrimPrefix(url, "http://localhost:8080/media/")
	data, err := os.ReadFile(filepath.Join(store.Dir(), name))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != 32 || !bytes.HasPrefix(data, pngHeader) {
		t.Fatalf("stored %d bytes", len(data))
	}
}

func TestDiskStoreRejectsWhenReaderExceedsLimitEvenIfDeclaredSizeIsSmaller(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "", 5)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	// Size says 4, but the reader provides 6 bytes.
	f := &File{Filename: "x.png", Size: 4, Reader: bytes.NewReader([]byte("123456"))}
	if _, err := store.Upload(context.Background(), f); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want %v", err, ErrTooLarge)
	}
	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 0 {
		t.Fatalf("expected partial file to be removed, found %d entries", len(entries))
	}
}

func TestDiskStoreCleanupRemovesOldFiles(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "", 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	oldPath := filepath.Join(store.Dir(), "old.png")
	newPath := filepath.Join(store.Dir(), "new.png")
	os.WriteFile(oldPath, []byte("x"), 0644)
	os.WriteFile(newPath, []byte("x"), 0644)
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if err := store.Cleanup(time.Hour); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Errorf("old file should be removed; stat err=%v", err)
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Errorf("new file should remain: %v", err)
	}
}
