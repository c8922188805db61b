// Package marker reads and writes the per-directory provenance records that
// track which files in a directory are managed, by which package, at which
// version. A marker file's presence asserts "files in this directory may be
// under management"; its absence means nothing in the directory is tracked.
package marker

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pubtree/pubtree/pkg/pubtree/types"
)

// DefaultName is the marker filename written into each managed directory.
const DefaultName = ".folder-publisher"

// Record is the parsed contents of one marker file. Entry order is insertion
// order; (Path, Package) is unique within a record.
type Record struct {
	ManagedFiles []types.ManagedFile `json:"managedFiles"`
}

// Entry returns the managed file for (path, pkg) and whether it exists.
func (r *Record) Entry(path, pkg string) (types.ManagedFile, bool) {
	for _, mf := range r.ManagedFiles {
		if mf.Path == path && mf.Package == pkg {
			return mf, true
		}
	}
	return types.ManagedFile{}, false
}

// Owner returns the package owning path, if any entry claims it.
func (r *Record) Owner(path string) (string, bool) {
	for _, mf := range r.ManagedFiles {
		if mf.Path == path {
			return mf.Package, true
		}
	}
	return "", false
}

// Store reads, writes and merges marker files. It serializes its own writes
// but provides no cross-process locking: the output directory has a
// single-writer contract.
type Store struct {
	name string
	mu   sync.Mutex
}

// NewStore creates a Store using the default marker filename.
func NewStore() *Store {
	return &Store{name: DefaultName}
}

// Name returns the marker filename this store manages.
func (s *Store) Name() string { return s.name }

// Path returns the marker file path for a directory.
func (s *Store) Path(dir string) string {
	return filepath.Join(dir, s.name)
}

// Load reads and parses the marker at dir. A missing marker yields an empty
// record; a present but unparsable one yields a CorruptMarkerError.
func (s *Store) Load(dir string) (*Record, error) {
	data, err := os.ReadFile(s.Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return &Record{}, nil
		}
		return nil, fmt.Errorf("reading marker in %s: %w", dir, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &types.CorruptMarkerError{Dir: dir, Err: err}
	}

	return &rec, nil
}

// Save serializes the record deterministically (stable field order, two-space
// indent, trailing newline) and writes it atomically via a temp file rename.
// The directory is created if missing. An empty record removes the marker.
func (s *Store) Save(dir string, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(dir)

	if len(rec.ManagedFiles) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing empty marker %s: %w", path, err)
		}
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating marker directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling marker for %s: %w", dir, err)
	}
	data = append(data, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing marker %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming marker %s: %w", path, err)
	}

	return nil
}

// Upsert replaces any existing entry with the same (path, package), else
// appends, and persists the record. Unrelated entries keep their order.
// An entry from a different package at the same path is replaced too:
// ownership is last-writer-wins at the marker level.
func (s *Store) Upsert(dir string, entry types.ManagedFile) error {
	rec, err := s.Load(dir)
	if err != nil {
		return err
	}

	replaced := false
	for i, mf := range rec.ManagedFiles {
		if mf.Path == entry.Path {
			rec.ManagedFiles[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		rec.ManagedFiles = append(rec.ManagedFiles, entry)
	}

	return s.Save(dir, rec)
}

// Remove drops the entry for (path, pkg) and persists the record. Removing
// the last entry deletes the marker file. Missing entries are a no-op.
func (s *Store) Remove(dir, path, pkg string) error {
	rec, err := s.Load(dir)
	if err != nil {
		return err
	}

	kept := rec.ManagedFiles[:0]
	for _, mf := range rec.ManagedFiles {
		if mf.Path == path && mf.Package == pkg {
			continue
		}
		kept = append(kept, mf)
	}
	if len(kept) == len(rec.ManagedFiles) {
		return nil
	}
	rec.ManagedFiles = kept

	return s.Save(dir, rec)
}

// IsManaged reports whether an entry for path exists in dir's marker,
// optionally scoped to a package (empty pkg matches any owner).
func (s *Store) IsManaged(dir, path, pkg string) (bool, error) {
	rec, err := s.Load(dir)
	if err != nil {
		return false, err
	}

	for _, mf := range rec.ManagedFiles {
		if mf.Path != path {
			continue
		}
		if pkg == "" || mf.Package == pkg {
			return true, nil
		}
	}
	return false, nil
}

// Walk visits every directory under root that contains a marker file, in
// lexical order, calling fn with the directory and its parsed record.
func (s *Store) Walk(root string, fn func(dir string, rec *Record) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || d.Name() != s.name {
			return nil
		}

		dir := filepath.Dir(path)
		rec, err := s.Load(dir)
		if err != nil {
			return err
		}
		return fn(dir, rec)
	})
}
