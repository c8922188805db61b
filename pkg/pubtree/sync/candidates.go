// Package sync implements the extraction engine and the drift checker: the
// logic that copies a package's candidate files into the output tree while
// tracking provenance per directory, and the logic that later reports whether
// the extracted copies still match their source.
package sync

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	gosync "sync"

	"github.com/charlievieth/fastwalk"
	"github.com/pubtree/pubtree/pkg/pubtree/filter"
)

// Candidate is one package source file that survived exclusions and filters.
// Rel is slash-separated and relative to the package root.
type Candidate struct {
	Rel    string
	Source string
}

// CollectCandidates walks a package's root with fastwalk and returns the
// filtered candidate set sorted by relative path, so every run visits files
// in the same order.
func CollectCandidates(ctx context.Context, root string, flt *filter.Filter) ([]Candidate, error) {
	root = filepath.Clean(root)
	prefix := root + string(filepath.Separator)

	var (
		mu         gosync.Mutex
		candidates []Candidate
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			return err
		}

		if d.IsDir() {
			// node_modules never yields candidates; skip the subtree early.
			if d.Name() == "node_modules" && path != root {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel := filepath.ToSlash(strings.TrimPrefix(path, prefix))
		ok, ferr := flt.ShouldInclude(rel, func() ([]byte, error) {
			return os.ReadFile(path)
		})
		if ferr != nil {
			return ferr
		}
		if !ok {
			return nil
		}

		mu.Lock()
		candidates = append(candidates, Candidate{Rel: rel, Source: path})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Rel < candidates[j].Rel
	})

	return candidates, nil
}
