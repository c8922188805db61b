// Package history journals extract and check runs to the filesystem, one
// pretty-printed JSON entry per run, so consumers can audit what pubtree did
// to their tree and when.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// OperationType represents the type of a journaled run.
type OperationType string

const (
	// OpExtract represents an extract run.
	OpExtract OperationType = "extract"
	// OpCheck represents a check run.
	OpCheck OperationType = "check"
)

// PackageSummary records one package's outcome within a run.
type PackageSummary struct {
	Package  string `json:"package"`
	Version  string `json:"version"`
	Added    int    `json:"added,omitempty"`
	Modified int    `json:"modified,omitempty"`
	Deleted  int    `json:"deleted,omitempty"`
	Skipped  int    `json:"skipped,omitempty"`
	Missing  int    `json:"missing,omitempty"`
	Extra    int    `json:"extra,omitempty"`
	OK       *bool  `json:"ok,omitempty"`
}

// Entry represents a single journaled run.
type Entry struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Operation OperationType    `json:"operation"`
	OutputDir string           `json:"output_dir"`
	DryRun    bool             `json:"dry_run,omitempty"`
	Packages  []PackageSummary `json:"packages"`
}

// Journal manages run logging to a directory.
type Journal struct {
	dir string
	mu  sync.Mutex
}

// New creates a Journal writing to dir. The directory is created on first log.
func New(dir string) (*Journal, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &Journal{dir: dir}, nil
}

// Log persists a run entry, assigning its ID and timestamp, and returns it.
func (j *Journal) Log(op OperationType, outputDir string, dryRun bool, packages []PackageSummary) (*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	now := time.Now().UTC()
	entry := &Entry{
		ID:        fmt.Sprintf("%s-%s-%s", op, now.Format("2006-01-02T15-04-05"), uuid.NewString()[:8]),
		Timestamp: now,
		Operation: op,
		OutputDir: outputDir,
		DryRun:    dryRun,
		Packages:  packages,
	}

	if err := j.writeEntry(entry); err != nil {
		return nil, fmt.Errorf("writing history entry: %w", err)
	}

	return entry, nil
}

// writeEntry writes an entry atomically using a temp file and rename.
func (j *Journal) writeEntry(entry *Entry) error {
	path := filepath.Join(j.dir, entry.ID+".json")

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}
	data = append(data, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// List returns entries sorted by timestamp descending (newest first).
// A non-positive limit returns all entries. Unparsable files are skipped.
func (j *Journal) List(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	files, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("reading history directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		entry, err := j.readEntryFile(f.Name())
		if err != nil {
			continue
		}
		entries = append(entries, *entry)
	}

	sort.Slice(entries, func(i, k int) bool {
		return entries[i].Timestamp.After(entries[k].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// Get retrieves a specific entry by ID.
func (j *Journal) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entry, err := j.readEntryFile(id + ".json")
	if err != nil {
		return nil, fmt.Errorf("entry not found: %s", id)
	}
	return entry, nil
}

// readEntryFile reads and parses one journal file.
func (j *Journal) readEntryFile(filename string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(j.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling entry: %w", err)
	}
	return &entry, nil
}

// Cleanup removes entries older than retentionDays.
func (j *Journal) Cleanup(retentionDays int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	files, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading history directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(j.dir, f.Name()))
		}
	}

	return nil
}
