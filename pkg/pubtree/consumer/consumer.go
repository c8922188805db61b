// Package consumer is the public entry point of pubtree. It drives one or
// more requested packages through the sync engine or the drift checker and
// aggregates per-package outcomes into the overall result.
package consumer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pubtree/pubtree/pkg/pubtree/digestcache"
	"github.com/pubtree/pubtree/pkg/pubtree/filter"
	"github.com/pubtree/pubtree/pkg/pubtree/logging"
	"github.com/pubtree/pubtree/pkg/pubtree/marker"
	"github.com/pubtree/pubtree/pkg/pubtree/resolver"
	"github.com/pubtree/pubtree/pkg/pubtree/semver"
	"github.com/pubtree/pubtree/pkg/pubtree/sync"
	"github.com/pubtree/pubtree/pkg/pubtree/types"
)

// Request names one package to operate on, with optional per-package filter
// patterns that extend the global ones.
type Request struct {
	// Spec is "name" or "name@constraint".
	Spec string

	// Patterns are filename globs ("!" prefix excludes) for this package only.
	Patterns []string

	// ContentPatterns are content regexes for this package only.
	ContentPatterns []string
}

// Config configures a Consumer.
type Config struct {
	// Requests lists the packages to operate on. Must not be empty.
	Requests []Request

	// OutputDir receives extracted files. Must not be empty.
	OutputDir string

	// Cwd is the consumer project root (node_modules location and lockfile
	// detection). Empty means the process working directory resolution is
	// left to the caller; relative paths are interpreted against it.
	Cwd string

	// Manager selects the package manager; ManagerAuto detects by lockfile.
	Manager resolver.Manager

	// AllowConflicts permits overwriting unmanaged pre-existing files.
	AllowConflicts bool

	// DryRun classifies and reports without mutating the filesystem.
	DryRun bool

	// Gitignore maintains .gitignore entries for managed files.
	Gitignore bool

	// Upgrade reinstalls packages through the manager before extraction.
	Upgrade bool

	// Patterns and ContentPatterns apply to every request.
	Patterns        []string
	ContentPatterns []string

	// OnEvent receives progress events during Extract. Nil discards them.
	OnEvent types.EventSink

	// Cache is an optional digest cache used by Check.
	Cache *digestcache.Cache
}

// Consumer orchestrates extract, check and list across requested packages.
// Packages are processed sequentially: marker files are shared mutable state
// keyed by directory, and two packages may touch the same directory.
type Consumer struct {
	cfg      Config
	resolver *resolver.Resolver
	markers  *marker.Store
	log      *logging.Logger
}

// New validates the configuration and wires a Consumer.
func New(cfg Config) (*Consumer, error) {
	if len(cfg.Requests) == 0 {
		return nil, fmt.Errorf("%w: no packages requested", types.ErrInvalidConfig)
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("%w: output directory is required", types.ErrInvalidConfig)
	}
	if cfg.Cwd == "" {
		cfg.Cwd = "."
	}
	if !filepath.IsAbs(cfg.OutputDir) {
		cfg.OutputDir = filepath.Join(cfg.Cwd, cfg.OutputDir)
	}

	return &Consumer{
		cfg:      cfg,
		resolver: resolver.New(cfg.Cwd, cfg.Manager),
		markers:  marker.NewStore(),
		log:      logging.Get("sync"),
	}, nil
}

// Resolver exposes the wired resolver, mainly for watch mode.
func (c *Consumer) Resolver() *resolver.Resolver { return c.resolver }

// requestFilter compiles the effective filter for one request.
func (c *Consumer) requestFilter(req Request) (*filter.Filter, error) {
	patterns := append(append([]string{}, c.cfg.Patterns...), req.Patterns...)
	content := append(append([]string{}, c.cfg.ContentPatterns...), req.ContentPatterns...)
	return filter.New(filter.WithPatterns(patterns...), filter.WithContentPatterns(content...))
}

// Extract synchronizes every requested package into the output directory and
// aggregates the per-package change lists. Packages are independent: a
// failure in a later package does not undo changes already applied for
// earlier ones (no cross-package transaction).
func (c *Consumer) Extract(ctx context.Context) (*types.ExtractResult, error) {
	result := types.NewExtractResult()
	result.DryRun = c.cfg.DryRun

	for _, req := range c.cfg.Requests {
		spec, err := resolver.ParseSpec(req.Spec)
		if err != nil {
			return nil, err
		}

		pkg, err := c.resolver.Resolve(ctx, spec, c.cfg.Upgrade)
		if err != nil {
			return nil, err
		}

		flt, err := c.requestFilter(req)
		if err != nil {
			return nil, err
		}

		engine := sync.NewEngine(c.markers, flt, c.cfg.OnEvent, sync.Options{
			AllowConflicts: c.cfg.AllowConflicts,
			DryRun:         c.cfg.DryRun,
			Gitignore:      c.cfg.Gitignore,
		})

		changes, err := engine.Extract(ctx, pkg, c.cfg.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", spec.Name, err)
		}
		result.Merge(changes)
	}

	return result, nil
}

// Check reports drift for every requested package. It never installs: a
// package that cannot be located fails with ErrPackageNotInstalled.
func (c *Consumer) Check(ctx context.Context) (*types.CheckResult, error) {
	result := types.NewCheckResult()

	for _, req := range c.cfg.Requests {
		spec, err := resolver.ParseSpec(req.Spec)
		if err != nil {
			return nil, err
		}

		pkg, err := c.resolver.Locate(spec.Name)
		if err != nil {
			return nil, err
		}

		flt, err := c.requestFilter(req)
		if err != nil {
			return nil, err
		}

		checker := sync.NewChecker(c.markers, flt, c.cfg.Cache)
		pc, err := checker.Check(ctx, pkg, c.cfg.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", spec.Name, err)
		}
		result.Merge(pc)
	}

	return result, nil
}

// List reports the installed version, constraint satisfaction and managed
// file count for every requested package. Never-installed packages are
// listed, not failed.
func (c *Consumer) List(ctx context.Context) ([]types.PackageStatus, error) {
	managed, err := c.managedCounts()
	if err != nil {
		return nil, err
	}

	statuses := make([]types.PackageStatus, 0, len(c.cfg.Requests))
	for _, req := range c.cfg.Requests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		spec, err := resolver.ParseSpec(req.Spec)
		if err != nil {
			return nil, err
		}

		status := types.PackageStatus{
			Package:    spec.Name,
			Constraint: spec.Constraint,
			Managed:    managed[spec.Name],
		}

		pkg, err := c.resolver.Locate(spec.Name)
		if err == nil {
			status.Installed = true
			status.Version = pkg.Version
			ok, verr := semver.Satisfies(pkg.Version, spec.Constraint)
			if verr != nil {
				return nil, fmt.Errorf("checking constraint for %s: %w", spec.Name, verr)
			}
			status.Satisfies = ok
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}

// managedCounts tallies marker entries per package across the output tree.
func (c *Consumer) managedCounts() (map[string]int, error) {
	counts := make(map[string]int)
	err := c.markers.Walk(c.cfg.OutputDir, func(dir string, rec *marker.Record) error {
		for _, mf := range rec.ManagedFiles {
			counts[mf.Package]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
