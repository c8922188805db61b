package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pubtree/pubtree/pkg/pubtree/filter"
	"github.com/pubtree/pubtree/pkg/pubtree/hash"
	"github.com/pubtree/pubtree/pkg/pubtree/logging"
	"github.com/pubtree/pubtree/pkg/pubtree/marker"
	"github.com/pubtree/pubtree/pkg/pubtree/resolver"
	"github.com/pubtree/pubtree/pkg/pubtree/types"
)

// managedMode is the file mode set on every extracted file. Read-only for
// everyone, advisory protection against hand edits.
const managedMode = os.FileMode(0o444)

// Options configures one extraction run.
type Options struct {
	// AllowConflicts permits overwriting pre-existing files this engine does
	// not manage. The overwrite is recorded with force=true in the marker.
	AllowConflicts bool

	// DryRun classifies and emits events without touching the filesystem.
	DryRun bool

	// Gitignore maintains a .gitignore next to each marker covering the
	// marker file and every managed path.
	Gitignore bool
}

// Engine extracts one package's candidate files into an output directory.
// It consults the marker store for provenance and fails fast on the first
// conflict, before any write for that package.
type Engine struct {
	markers *marker.Store
	filter  *filter.Filter
	sink    types.EventSink
	opts    Options
	log     *logging.Logger
}

// NewEngine creates an extraction engine. A nil sink discards events.
func NewEngine(markers *marker.Store, flt *filter.Filter, sink types.EventSink, opts Options) *Engine {
	if sink == nil {
		sink = types.NopSink{}
	}
	return &Engine{
		markers: markers,
		filter:  flt,
		sink:    sink,
		opts:    opts,
		log:     logging.Get("sync"),
	}
}

// action is one planned filesystem decision for a candidate or orphan.
type action struct {
	kind  types.Action
	rel   string // slash-separated, relative to outputDir
	src   string // package source path, empty for deletes
	force bool
}

// Extract synchronizes one installed package into outputDir. The walk is
// two-phase: every candidate is classified first, so a conflict aborts
// before the first write and the caller never observes a half-written
// package. Returns the package's change lists.
func (e *Engine) Extract(ctx context.Context, pkg *resolver.Installed, outputDir string) (*types.PackageChanges, error) {
	candidates, err := CollectCandidates(ctx, pkg.Root, e.filter)
	if err != nil {
		return nil, fmt.Errorf("collecting candidates for %s: %w", pkg.Name, err)
	}

	plan, err := e.plan(ctx, pkg, outputDir, candidates)
	if err != nil {
		return nil, err
	}

	orphans, err := e.findOrphans(pkg, outputDir, candidates)
	if err != nil {
		return nil, err
	}
	plan = append(plan, orphans...)

	e.publish(types.Event{Kind: types.EventPackageStart, Package: pkg.Name, Version: pkg.Version, DryRun: e.opts.DryRun})

	changes := &types.PackageChanges{
		Package:  pkg.Name,
		Version:  pkg.Version,
		Added:    []string{},
		Modified: []string{},
		Deleted:  []string{},
		Skipped:  []string{},
	}

	touched := make(map[string]bool)
	for _, act := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.apply(pkg, outputDir, act, changes, touched); err != nil {
			return nil, err
		}
	}

	if e.opts.Gitignore && !e.opts.DryRun {
		for dir := range touched {
			if err := e.ensureGitignore(dir); err != nil {
				return nil, err
			}
		}
	}

	e.publish(types.Event{Kind: types.EventPackageEnd, Package: pkg.Name, Version: pkg.Version, DryRun: e.opts.DryRun})

	e.log.Info("extract finished",
		"package", pkg.Name,
		"version", pkg.Version,
		"added", len(changes.Added),
		"modified", len(changes.Modified),
		"deleted", len(changes.Deleted),
		"skipped", len(changes.Skipped),
		"dry_run", e.opts.DryRun)

	return changes, nil
}

// plan classifies every candidate without mutating anything. It returns a
// ConflictError for the first unmanaged pre-existing destination unless
// conflicts are allowed.
func (e *Engine) plan(ctx context.Context, pkg *resolver.Installed, outputDir string, candidates []Candidate) ([]action, error) {
	records := make(map[string]*marker.Record)
	plan := make([]action, 0, len(candidates))

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		destPath := filepath.Join(outputDir, filepath.FromSlash(c.Rel))
		destDir := filepath.Dir(destPath)
		base := filepath.Base(destPath)

		rec, ok := records[destDir]
		if !ok {
			var err error
			rec, err = e.markers.Load(destDir)
			if err != nil {
				return nil, err
			}
			records[destDir] = rec
		}

		info, err := os.Lstat(destPath)
		switch {
		case os.IsNotExist(err):
			plan = append(plan, action{kind: types.ActionAdd, rel: c.Rel, src: c.Source})
			continue
		case err != nil:
			return nil, fmt.Errorf("examining %s: %w", destPath, err)
		case info.IsDir():
			return nil, fmt.Errorf("destination %s is a directory", destPath)
		}

		owner, owned := rec.Owner(base)

		if owned && owner == pkg.Name {
			same, err := sameContent(c.Source, destPath)
			if err != nil {
				return nil, err
			}
			if same {
				plan = append(plan, action{kind: types.ActionSkip, rel: c.Rel, src: c.Source})
			} else {
				plan = append(plan, action{kind: types.ActionUpdate, rel: c.Rel, src: c.Source})
			}
			continue
		}

		// Pre-existing file this package does not own: unmanaged, or owned by
		// another package. Without AllowConflicts the whole walk fails here,
		// before anything was written.
		if !e.opts.AllowConflicts {
			return nil, &types.ConflictError{Path: destPath, Owner: owner}
		}
		if owned {
			// Ownership transfer: the marker entry is replaced last-writer-wins.
			plan = append(plan, action{kind: types.ActionUpdate, rel: c.Rel, src: c.Source, force: true})
		} else {
			plan = append(plan, action{kind: types.ActionAdd, rel: c.Rel, src: c.Source, force: true})
		}
	}

	return plan, nil
}

// findOrphans locates marker entries for this package whose path is no longer
// among the run's candidates. Orphans are removed from disk and dropped from
// their marker during apply.
func (e *Engine) findOrphans(pkg *resolver.Installed, outputDir string, candidates []Candidate) ([]action, error) {
	current := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		current[c.Rel] = true
	}

	var orphans []action
	err := e.markers.Walk(outputDir, func(dir string, rec *marker.Record) error {
		relDir, err := filepath.Rel(outputDir, dir)
		if err != nil {
			return err
		}
		for _, mf := range rec.ManagedFiles {
			if mf.Package != pkg.Name {
				continue
			}
			rel := filepath.ToSlash(filepath.Join(relDir, mf.Path))
			if !current[rel] {
				orphans = append(orphans, action{kind: types.ActionDelete, rel: rel})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return orphans, nil
}

// apply executes one planned action, updates the marker, and emits the event.
// Dry-run emits the event and counts only.
func (e *Engine) apply(pkg *resolver.Installed, outputDir string, act action, changes *types.PackageChanges, touched map[string]bool) error {
	destPath := filepath.Join(outputDir, filepath.FromSlash(act.rel))
	destDir := filepath.Dir(destPath)
	base := filepath.Base(destPath)

	event := types.Event{
		Package: pkg.Name,
		Version: pkg.Version,
		Path:    act.rel,
		Force:   act.force,
		DryRun:  e.opts.DryRun,
	}

	switch act.kind {
	case types.ActionAdd, types.ActionUpdate:
		if !e.opts.DryRun {
			if err := e.writeManaged(act.src, destPath); err != nil {
				return err
			}
			entry := types.ManagedFile{Path: base, Package: pkg.Name, Version: pkg.Version, Force: act.force}
			if err := e.markers.Upsert(destDir, entry); err != nil {
				return err
			}
			touched[destDir] = true
		}
		if act.kind == types.ActionAdd {
			changes.Added = append(changes.Added, act.rel)
			event.Kind = types.EventFileAdded
		} else {
			changes.Modified = append(changes.Modified, act.rel)
			event.Kind = types.EventFileModified
		}

	case types.ActionSkip:
		if !e.opts.DryRun {
			// Content is current but the recorded version may lag after a
			// content-identical release; refresh the entry in place.
			if err := e.refreshVersion(destDir, base, pkg); err != nil {
				return err
			}
		}
		changes.Skipped = append(changes.Skipped, act.rel)
		event.Kind = types.EventFileSkipped

	case types.ActionDelete:
		if !e.opts.DryRun {
			if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing orphan %s: %w", destPath, err)
			}
			if err := e.markers.Remove(destDir, base, pkg.Name); err != nil {
				return err
			}
			touched[destDir] = true
		}
		changes.Deleted = append(changes.Deleted, act.rel)
		event.Kind = types.EventFileDeleted
	}

	e.publish(event)
	return nil
}

// refreshVersion updates a skipped file's marker entry when the package
// version moved without a content change.
func (e *Engine) refreshVersion(destDir, base string, pkg *resolver.Installed) error {
	rec, err := e.markers.Load(destDir)
	if err != nil {
		return err
	}
	entry, ok := rec.Entry(base, pkg.Name)
	if !ok || entry.Version == pkg.Version {
		return nil
	}
	entry.Version = pkg.Version
	return e.markers.Upsert(destDir, entry)
}

// writeManaged copies src to dest and marks the destination read-only.
// A pre-existing destination (possibly read-only from an earlier run) is
// removed first.
func (e *Engine) writeManaged(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dest, err)
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replacing %s: %w", dest, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}

	if err := os.Chmod(dest, managedMode); err != nil {
		return fmt.Errorf("marking %s read-only: %w", dest, err)
	}
	return nil
}

// publish sends one event to the sink.
func (e *Engine) publish(ev types.Event) {
	e.sink.Publish(ev)
}

// sameContent compares two files by content digest.
func sameContent(a, b string) (bool, error) {
	da, err := hash.File(a)
	if err != nil {
		return false, err
	}
	db, err := hash.File(b)
	if err != nil {
		return false, err
	}
	return da == db, nil
}
