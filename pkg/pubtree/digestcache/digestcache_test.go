package digestcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pubtree/pubtree/pkg/pubtree/hash"
)

func setupCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "digests"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_Digest(t *testing.T) {
	c := setupCache(t)

	path := filepath.Join(t.TempDir(), "f.txt")
	content := []byte("cached content")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	want := hash.Bytes(content)

	// First call hashes, second is served from the cache; both must agree.
	for i := 0; i < 2; i++ {
		got, err := c.Digest(path)
		if err != nil {
			t.Fatalf("Digest() call %d error = %v", i, err)
		}
		if got != want {
			t.Errorf("Digest() call %d = %s, want %s", i, got, want)
		}
	}
}

func TestCache_Digest_InvalidatesOnChange(t *testing.T) {
	c := setupCache(t)

	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("before"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := c.Digest(path); err != nil {
		t.Fatalf("Digest() error = %v", err)
	}

	// Same size, different content and mtime.
	if err := os.WriteFile(path, []byte("after!"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	got, err := c.Digest(path)
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	if want := hash.Bytes([]byte("after!")); got != want {
		t.Errorf("Digest() = %s, want fresh %s", got, want)
	}
}

func TestCache_Digest_MissingFile(t *testing.T) {
	c := setupCache(t)

	if _, err := c.Digest(filepath.Join(t.TempDir(), "ghost")); err == nil {
		t.Error("Digest() error = nil for missing file, want error")
	}
}

func TestCache_Forget(t *testing.T) {
	c := setupCache(t)

	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := c.Digest(path); err != nil {
		t.Fatalf("Digest() error = %v", err)
	}

	if err := c.Forget(path); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}

	// Still correct after eviction; it simply rehashes.
	got, err := c.Digest(path)
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	if want := hash.Bytes([]byte("x")); got != want {
		t.Errorf("Digest() = %s, want %s", got, want)
	}
}
