package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pubtree/pubtree/pkg/pubtree/digestcache"
	"github.com/pubtree/pubtree/pkg/pubtree/filter"
	"github.com/pubtree/pubtree/pkg/pubtree/hash"
	"github.com/pubtree/pubtree/pkg/pubtree/logging"
	"github.com/pubtree/pubtree/pkg/pubtree/marker"
	"github.com/pubtree/pubtree/pkg/pubtree/resolver"
	"github.com/pubtree/pubtree/pkg/pubtree/types"
)

// Checker recomputes what the engine would have written for an installed
// package and compares it against the current on-disk state and marker
// contents, classifying each candidate as missing, modified or extra.
type Checker struct {
	markers *marker.Store
	filter  *filter.Filter
	cache   *digestcache.Cache
	log     *logging.Logger
}

// NewChecker creates a drift checker. The digest cache may be nil, in which
// case every file is rehashed.
func NewChecker(markers *marker.Store, flt *filter.Filter, cache *digestcache.Cache) *Checker {
	return &Checker{
		markers: markers,
		filter:  flt,
		cache:   cache,
		log:     logging.Get("sync"),
	}
}

// Check classifies every candidate of one installed package.
//   - missing: marker entry for this package exists, file does not.
//   - modified: file and entry exist, content digest differs from the source.
//   - extra: valid candidate with no marker entry for this package.
//
// OK is true iff missing and modified are both empty; extra files alone are
// not drift.
func (c *Checker) Check(ctx context.Context, pkg *resolver.Installed, outputDir string) (*types.PackageCheck, error) {
	candidates, err := CollectCandidates(ctx, pkg.Root, c.filter)
	if err != nil {
		return nil, fmt.Errorf("collecting candidates for %s: %w", pkg.Name, err)
	}

	result := &types.PackageCheck{
		Package: pkg.Name,
		Version: pkg.Version,
		Differences: types.Differences{
			Missing:  []string{},
			Modified: []string{},
			Extra:    []string{},
		},
	}

	records := make(map[string]*marker.Record)

	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		destPath := filepath.Join(outputDir, filepath.FromSlash(cand.Rel))
		destDir := filepath.Dir(destPath)
		base := filepath.Base(destPath)

		rec, ok := records[destDir]
		if !ok {
			rec, err = c.markers.Load(destDir)
			if err != nil {
				return nil, err
			}
			records[destDir] = rec
		}

		if _, managed := rec.Entry(base, pkg.Name); !managed {
			result.Differences.Extra = append(result.Differences.Extra, cand.Rel)
			continue
		}

		if _, err := os.Lstat(destPath); os.IsNotExist(err) {
			result.Differences.Missing = append(result.Differences.Missing, cand.Rel)
			continue
		} else if err != nil {
			return nil, fmt.Errorf("examining %s: %w", destPath, err)
		}

		srcDigest, err := c.digest(cand.Source)
		if err != nil {
			return nil, err
		}
		destDigest, err := c.digest(destPath)
		if err != nil {
			return nil, err
		}
		if srcDigest != destDigest {
			result.Differences.Modified = append(result.Differences.Modified, cand.Rel)
		}
	}

	result.OK = result.Differences.Clean()

	c.log.Debug("check finished",
		"package", pkg.Name,
		"ok", result.OK,
		"missing", len(result.Differences.Missing),
		"modified", len(result.Differences.Modified),
		"extra", len(result.Differences.Extra))

	return result, nil
}

// digest hashes a file, going through the digest cache when available.
func (c *Checker) digest(path string) (string, error) {
	if c.cache != nil {
		return c.cache.Digest(path)
	}
	return hash.File(path)
}
