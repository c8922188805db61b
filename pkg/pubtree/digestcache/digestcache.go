// Package digestcache provides a Badger DB-backed cache of file content
// digests keyed by absolute path. A cached digest is reused only while the
// file's size and modification time are unchanged, so repeated check runs
// over large trees avoid rehashing untouched files.
package digestcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/pubtree/pubtree/pkg/pubtree/hash"
)

// entry is the stored cache record for one path.
type entry struct {
	Size    int64  `json:"size"`
	MtimeNS int64  `json:"mtime_ns"`
	Digest  string `json:"digest"`
}

// Cache is the digest cache backed by Badger DB.
type Cache struct {
	db *badger.DB
}

// Open opens or creates a cache at the given directory.
func Open(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger's own logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening digest cache at %s: %w", path, err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Digest returns the content digest of the file at path, from the cache when
// size and mtime still match, rehashing and updating the cache otherwise.
func (c *Cache) Digest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	size := info.Size()
	mtime := info.ModTime().UnixNano()

	if digest, ok := c.lookup(path, size, mtime); ok {
		return digest, nil
	}

	digest, err := hash.File(path)
	if err != nil {
		return "", err
	}

	// A failed cache write only costs a future rehash.
	_ = c.store(path, entry{Size: size, MtimeNS: mtime, Digest: digest})

	return digest, nil
}

// lookup fetches a cache entry and validates it against the current stat.
func (c *Cache) lookup(path string, size, mtime int64) (string, bool) {
	var e entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return "", false
		}
		return "", false
	}

	if e.Size != size || e.MtimeNS != mtime {
		return "", false
	}
	return e.Digest, true
}

// store writes a cache entry.
func (c *Cache) store(path string, e entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), data)
	})
}

// Forget drops the cache entry for a path, if any.
func (c *Cache) Forget(path string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(path))
	})
}
