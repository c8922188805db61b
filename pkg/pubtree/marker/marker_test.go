package marker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/pubtree/pubtree/pkg/pubtree/types"
)

func TestStore_Load(t *testing.T) {
	t.Parallel()

	t.Run("missing marker yields empty record", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := t.TempDir()

		rec, err := s.Load(dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(rec.ManagedFiles) != 0 {
			t.Errorf("ManagedFiles = %v, want empty", rec.ManagedFiles)
		}
	})

	t.Run("parses existing marker", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := t.TempDir()

		data := `{"managedFiles":[{"path":"a.json","package":"pkg-a","version":"1.0.0"}]}`
		if err := os.WriteFile(s.Path(dir), []byte(data), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		rec, err := s.Load(dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(rec.ManagedFiles) != 1 {
			t.Fatalf("len(ManagedFiles) = %d, want 1", len(rec.ManagedFiles))
		}
		mf := rec.ManagedFiles[0]
		if mf.Path != "a.json" || mf.Package != "pkg-a" || mf.Version != "1.0.0" {
			t.Errorf("entry = %+v, want a.json/pkg-a/1.0.0", mf)
		}
	})

	t.Run("unparsable marker yields corrupt marker error", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := t.TempDir()

		if err := os.WriteFile(s.Path(dir), []byte("{not json"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		_, err := s.Load(dir)
		if err == nil {
			t.Fatal("Load() error = nil, want corrupt marker error")
		}
		if !types.IsCorruptMarker(err) {
			t.Errorf("IsCorruptMarker(%v) = false, want true", err)
		}
	})
}

func TestStore_Save(t *testing.T) {
	t.Parallel()

	t.Run("writes deterministic pretty JSON with trailing newline", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := t.TempDir()

		rec := &Record{ManagedFiles: []types.ManagedFile{
			{Path: "x.json", Package: "p", Version: "2.0.0"},
		}}
		if err := s.Save(dir, rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		data, err := os.ReadFile(s.Path(dir))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if !strings.HasSuffix(string(data), "\n") {
			t.Error("marker does not end with newline")
		}
		if !strings.Contains(string(data), "  \"managedFiles\"") {
			t.Errorf("marker is not two-space indented:\n%s", data)
		}

		var decoded Record
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if len(decoded.ManagedFiles) != 1 {
			t.Errorf("len(ManagedFiles) = %d, want 1", len(decoded.ManagedFiles))
		}
	})

	t.Run("save is byte-identical for identical records", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := t.TempDir()

		rec := &Record{ManagedFiles: []types.ManagedFile{
			{Path: "a", Package: "p", Version: "1.0.0"},
			{Path: "b", Package: "p", Version: "1.0.0", Force: true},
		}}
		if err := s.Save(dir, rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		first, err := os.ReadFile(s.Path(dir))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}

		if err := s.Save(dir, rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		second, err := os.ReadFile(s.Path(dir))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}

		if string(first) != string(second) {
			t.Errorf("repeated saves differ:\n%s\nvs\n%s", first, second)
		}
	})

	t.Run("empty record removes the marker", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := t.TempDir()

		if err := s.Upsert(dir, types.ManagedFile{Path: "a", Package: "p", Version: "1"}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if err := s.Save(dir, &Record{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if _, err := os.Stat(s.Path(dir)); !os.IsNotExist(err) {
			t.Errorf("marker still exists, stat err = %v", err)
		}
	})

	t.Run("creates destination directory", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := filepath.Join(t.TempDir(), "nested", "deep")

		rec := &Record{ManagedFiles: []types.ManagedFile{{Path: "a", Package: "p", Version: "1"}}}
		if err := s.Save(dir, rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := os.Stat(s.Path(dir)); err != nil {
			t.Errorf("marker not written: %v", err)
		}
	})
}

func TestStore_Upsert(t *testing.T) {
	t.Parallel()

	t.Run("appends new entries in insertion order", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := t.TempDir()

		for _, p := range []string{"c", "a", "b"} {
			if err := s.Upsert(dir, types.ManagedFile{Path: p, Package: "p", Version: "1"}); err != nil {
				t.Fatalf("Upsert(%q) error = %v", p, err)
			}
		}

		rec, err := s.Load(dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		got := []string{}
		for _, mf := range rec.ManagedFiles {
			got = append(got, mf.Path)
		}
		want := []string{"c", "a", "b"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("paths = %v, want %v", got, want)
			}
		}
	})

	t.Run("replaces entry at same path", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := t.TempDir()

		if err := s.Upsert(dir, types.ManagedFile{Path: "a", Package: "p", Version: "1.0.0"}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if err := s.Upsert(dir, types.ManagedFile{Path: "a", Package: "p", Version: "2.0.0"}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		rec, err := s.Load(dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(rec.ManagedFiles) != 1 {
			t.Fatalf("len(ManagedFiles) = %d, want 1", len(rec.ManagedFiles))
		}
		if rec.ManagedFiles[0].Version != "2.0.0" {
			t.Errorf("Version = %q, want 2.0.0", rec.ManagedFiles[0].Version)
		}
	})

	t.Run("takes over entry owned by another package", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := t.TempDir()

		if err := s.Upsert(dir, types.ManagedFile{Path: "a", Package: "old", Version: "1"}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if err := s.Upsert(dir, types.ManagedFile{Path: "a", Package: "new", Version: "1", Force: true}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		rec, err := s.Load(dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(rec.ManagedFiles) != 1 {
			t.Fatalf("len(ManagedFiles) = %d, want 1", len(rec.ManagedFiles))
		}
		owner, ok := rec.Owner("a")
		if !ok || owner != "new" {
			t.Errorf("Owner(a) = %q, %v, want new, true", owner, ok)
		}
	})
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()

	t.Run("removes matching entry and keeps others", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := t.TempDir()

		entries := []types.ManagedFile{
			{Path: "a", Package: "p1", Version: "1"},
			{Path: "b", Package: "p1", Version: "1"},
			{Path: "c", Package: "p2", Version: "1"},
		}
		for _, e := range entries {
			if err := s.Upsert(dir, e); err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
		}

		if err := s.Remove(dir, "b", "p1"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}

		rec, err := s.Load(dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(rec.ManagedFiles) != 2 {
			t.Fatalf("len(ManagedFiles) = %d, want 2", len(rec.ManagedFiles))
		}
		if _, ok := rec.Entry("b", "p1"); ok {
			t.Error("entry b/p1 still present after Remove")
		}
	})

	t.Run("removing last entry deletes marker file", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := t.TempDir()

		if err := s.Upsert(dir, types.ManagedFile{Path: "only", Package: "p", Version: "1"}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if err := s.Remove(dir, "only", "p"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}

		if _, err := os.Stat(s.Path(dir)); !os.IsNotExist(err) {
			t.Errorf("marker still exists, stat err = %v", err)
		}
	})

	t.Run("missing entry is a no-op", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		dir := t.TempDir()

		if err := s.Remove(dir, "ghost", "p"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
	})
}

func TestStore_IsManaged(t *testing.T) {
	t.Parallel()
	s := NewStore()
	dir := t.TempDir()

	if err := s.Upsert(dir, types.ManagedFile{Path: "a", Package: "p1", Version: "1"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	tests := []struct {
		name string
		path string
		pkg  string
		want bool
	}{
		{name: "managed by named package", path: "a", pkg: "p1", want: true},
		{name: "managed by any package", path: "a", pkg: "", want: true},
		{name: "wrong package", path: "a", pkg: "p2", want: false},
		{name: "unmanaged path", path: "b", pkg: "p1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.IsManaged(dir, tt.path, tt.pkg)
			if err != nil {
				t.Fatalf("IsManaged() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsManaged(%q, %q) = %v, want %v", tt.path, tt.pkg, got, tt.want)
			}
		})
	}
}

func TestStore_Walk(t *testing.T) {
	t.Parallel()

	t.Run("visits every marked directory", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		root := t.TempDir()

		dirs := []string{
			root,
			filepath.Join(root, "sub"),
			filepath.Join(root, "sub", "deeper"),
		}
		for _, d := range dirs {
			if err := s.Upsert(d, types.ManagedFile{Path: "f", Package: "p", Version: "1"}); err != nil {
				t.Fatalf("Upsert(%q) error = %v", d, err)
			}
		}
		// A directory without a marker must not be visited.
		if err := os.MkdirAll(filepath.Join(root, "plain"), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}

		var visited []string
		err := s.Walk(root, func(dir string, rec *Record) error {
			visited = append(visited, dir)
			if len(rec.ManagedFiles) != 1 {
				t.Errorf("record in %s has %d entries, want 1", dir, len(rec.ManagedFiles))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}

		sort.Strings(visited)
		sort.Strings(dirs)
		if len(visited) != len(dirs) {
			t.Fatalf("visited %v, want %v", visited, dirs)
		}
		for i := range dirs {
			if visited[i] != dirs[i] {
				t.Errorf("visited[%d] = %q, want %q", i, visited[i], dirs[i])
			}
		}
	})

	t.Run("missing root is not an error", func(t *testing.T) {
		t.Parallel()
		s := NewStore()
		missing := filepath.Join(t.TempDir(), "never-created")

		err := s.Walk(missing, func(dir string, rec *Record) error {
			t.Errorf("unexpected visit to %s", dir)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
	})
}

func TestRecord_Entry(t *testing.T) {
	t.Parallel()

	rec := &Record{ManagedFiles: []types.ManagedFile{
		{Path: "a", Package: "p1", Version: "1.0.0"},
		{Path: "a", Package: "p2", Version: "2.0.0"},
	}}

	mf, ok := rec.Entry("a", "p2")
	if !ok {
		t.Fatal("Entry(a, p2) not found")
	}
	if mf.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", mf.Version)
	}

	if _, ok := rec.Entry("a", "p3"); ok {
		t.Error("Entry(a, p3) found, want missing")
	}
}
