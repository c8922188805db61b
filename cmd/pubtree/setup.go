package main

import (
	"fmt"

	"github.com/pubtree/pubtree/pkg/pubtree/config"
	"github.com/pubtree/pubtree/pkg/pubtree/consumer"
	"github.com/pubtree/pubtree/pkg/pubtree/digestcache"
	"github.com/pubtree/pubtree/pkg/pubtree/history"
	"github.com/pubtree/pubtree/pkg/pubtree/logging"
	"github.com/pubtree/pubtree/pkg/pubtree/resolver"
	"github.com/pubtree/pubtree/pkg/pubtree/types"
	"github.com/spf13/viper"
)

// buildRequests turns command-line package specs, or the configured package
// list when no specs are given, into consumer requests.
func buildRequests(args []string) ([]consumer.Request, error) {
	if len(args) > 0 {
		requests := make([]consumer.Request, 0, len(args))
		for _, arg := range args {
			requests = append(requests, consumer.Request{Spec: arg})
		}
		return requests, nil
	}

	var pkgs []config.PackageConfig
	if err := viper.UnmarshalKey("packages", &pkgs); err != nil {
		return nil, fmt.Errorf("reading packages from config: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages given and none configured; pass a package or add a packages section to .pubtree.yaml")
	}

	requests := make([]consumer.Request, 0, len(pkgs))
	for _, p := range pkgs {
		requests = append(requests, consumer.Request{
			Spec:            p.Name,
			Patterns:        p.Patterns,
			ContentPatterns: p.ContentPatterns,
		})
	}
	return requests, nil
}

// buildConsumer wires a Consumer from the effective configuration.
// The caller owns the returned cache and must close it when non-nil.
func buildConsumer(args []string, sink types.EventSink, withCache bool) (*consumer.Consumer, *digestcache.Cache, error) {
	requests, err := buildRequests(args)
	if err != nil {
		return nil, nil, err
	}

	manager, err := resolver.ParseManager(viper.GetString("manager"))
	if err != nil {
		return nil, nil, err
	}

	var cache *digestcache.Cache
	if withCache && viper.GetBool("cache.enabled") && !viper.GetBool("no_cache") {
		path := viper.GetString("cache.path")
		if path == "" {
			path = config.DefaultCachePath()
		}
		if err := config.EnsureDir(path); err != nil {
			return nil, nil, err
		}
		cache, err = digestcache.Open(path)
		if err != nil {
			// The cache is an optimization; fall back to rehashing.
			logging.Get("cli").Warn("digest cache unavailable", "error", err)
			cache = nil
		}
	}

	c, err := consumer.New(consumer.Config{
		Requests:        requests,
		OutputDir:       viper.GetString("output_dir"),
		Cwd:             projectCwd(),
		Manager:         manager,
		AllowConflicts:  viper.GetBool("force"),
		DryRun:          viper.GetBool("dry_run"),
		Gitignore:       viper.GetBool("gitignore"),
		Upgrade:         viper.GetBool("upgrade"),
		Patterns:        viper.GetStringSlice("patterns"),
		ContentPatterns: viper.GetStringSlice("content_patterns"),
		OnEvent:         sink,
		Cache:           cache,
	})
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, nil, err
	}

	return c, cache, nil
}

// progressSink returns an event sink that narrates the run, or a silent one
// in quiet/JSON mode.
func progressSink() types.EventSink {
	if getQuiet() || viper.GetBool("json") {
		return types.NopSink{}
	}

	return types.SinkFunc(func(e types.Event) {
		switch e.Kind {
		case types.EventPackageStart:
			if e.DryRun {
				printInfo("Previewing %s@%s...", e.Package, e.Version)
			} else {
				printInfo("Extracting %s@%s...", e.Package, e.Version)
			}
		case types.EventFileAdded, types.EventFileModified, types.EventFileDeleted, types.EventFileSkipped:
			logging.Get("cli").Debug("progress", "event", string(e.Kind), "package", e.Package, "path", e.Path)
		}
	})
}

// openJournal returns the run journal, or nil when history is disabled.
func openJournal() *history.Journal {
	if !viper.GetBool("history.enabled") {
		return nil
	}
	path := viper.GetString("history.path")
	if path == "" {
		path = config.DefaultHistoryPath()
	}
	j, err := history.New(path)
	if err != nil {
		logging.Get("cli").Warn("history disabled", "error", err)
		return nil
	}
	return j
}

// journalExtract records an extract run and prunes old entries.
func journalExtract(j *history.Journal, r *types.ExtractResult, outputDir string) {
	if j == nil {
		return
	}

	summaries := make([]history.PackageSummary, 0, len(r.Packages))
	for _, name := range r.SortedPackages() {
		pc := r.Packages[name]
		summaries = append(summaries, history.PackageSummary{
			Package:  pc.Package,
			Version:  pc.Version,
			Added:    len(pc.Added),
			Modified: len(pc.Modified),
			Deleted:  len(pc.Deleted),
			Skipped:  len(pc.Skipped),
		})
	}

	if _, err := j.Log(history.OpExtract, outputDir, r.DryRun, summaries); err != nil {
		logging.Get("cli").Warn("failed to journal run", "error", err)
	}
	_ = j.Cleanup(viper.GetInt("history.retention_days"))
}

// journalCheck records a check run.
func journalCheck(j *history.Journal, r *types.CheckResult, outputDir string) {
	if j == nil {
		return
	}

	summaries := make([]history.PackageSummary, 0, len(r.Packages))
	for _, name := range r.SortedPackages() {
		pc := r.Packages[name]
		ok := pc.OK
		summaries = append(summaries, history.PackageSummary{
			Package:  pc.Package,
			Version:  pc.Version,
			Missing:  len(pc.Differences.Missing),
			Modified: len(pc.Differences.Modified),
			Extra:    len(pc.Differences.Extra),
			OK:       &ok,
		})
	}

	if _, err := j.Log(history.OpCheck, outputDir, false, summaries); err != nil {
		logging.Get("cli").Warn("failed to journal run", "error", err)
	}
}
