// Package types provides core data types for pubtree.
// It includes the managed-file data model, extract/check result aggregates,
// the progress event stream, and the shared error taxonomy.
package types

import "sort"

// Action classifies what the sync engine decided to do with a candidate file.
type Action int

// Actions in the order the engine considers them.
const (
	// ActionAdd means the destination does not exist and will be created.
	ActionAdd Action = iota

	// ActionUpdate means the destination is managed and its content differs
	// from the package source.
	ActionUpdate

	// ActionSkip means the destination is managed and already up to date.
	ActionSkip

	// ActionDelete means a previously managed path is no longer produced by
	// the package and will be removed.
	ActionDelete
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionUpdate:
		return "update"
	case ActionSkip:
		return "skip"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ManagedFile is one entry in a directory's marker record. Path is relative
// to the marker's directory. Force records that the file was written over a
// pre-existing unmanaged file.
type ManagedFile struct {
	Path    string `json:"path"`
	Package string `json:"package"`
	Version string `json:"version"`
	Force   bool   `json:"force,omitempty"`
}

// PackageChanges holds the per-package outcome of an extract run.
// All paths are relative to the output directory.
type PackageChanges struct {
	Package  string   `json:"package"`
	Version  string   `json:"version"`
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Deleted  []string `json:"deleted"`
	Skipped  []string `json:"skipped"`
}

// ExtractResult aggregates an extract run across all requested packages.
// Per-package lists are kept alongside the global ones; the global lists are
// the concatenation of the per-package lists in processing order.
type ExtractResult struct {
	Added    []string                   `json:"added"`
	Modified []string                   `json:"modified"`
	Deleted  []string                   `json:"deleted"`
	Skipped  []string                   `json:"skipped"`
	DryRun   bool                       `json:"dry_run,omitempty"`
	Packages map[string]*PackageChanges `json:"packages"`
}

// NewExtractResult returns an empty result ready for accumulation.
func NewExtractResult() *ExtractResult {
	return &ExtractResult{
		Added:    []string{},
		Modified: []string{},
		Deleted:  []string{},
		Skipped:  []string{},
		Packages: make(map[string]*PackageChanges),
	}
}

// Merge accumulates one package's changes into the aggregate.
func (r *ExtractResult) Merge(pc *PackageChanges) {
	r.Added = append(r.Added, pc.Added...)
	r.Modified = append(r.Modified, pc.Modified...)
	r.Deleted = append(r.Deleted, pc.Deleted...)
	r.Skipped = append(r.Skipped, pc.Skipped...)
	r.Packages[pc.Package] = pc
}

// Changed reports whether the run produced (or would produce) any mutation.
func (r *ExtractResult) Changed() bool {
	return len(r.Added)+len(r.Modified)+len(r.Deleted) > 0
}

// Differences holds the drift classification produced by a check run.
// Missing and Modified mark drift; Extra alone does not (a candidate that was
// never extracted is not drift).
type Differences struct {
	Missing  []string `json:"missing"`
	Modified []string `json:"modified"`
	Extra    []string `json:"extra"`
}

// Clean reports whether there is no drift (extra files are tolerated).
func (d *Differences) Clean() bool {
	return len(d.Missing) == 0 && len(d.Modified) == 0
}

// PackageCheck holds the per-package outcome of a check run.
type PackageCheck struct {
	Package     string      `json:"package"`
	Version     string      `json:"version"`
	OK          bool        `json:"ok"`
	Differences Differences `json:"differences"`
}

// CheckResult aggregates a check run across all requested packages.
// OK is true iff every checked package is free of missing and modified files.
type CheckResult struct {
	OK          bool                     `json:"ok"`
	Differences Differences              `json:"differences"`
	Packages    map[string]*PackageCheck `json:"packages"`
}

// NewCheckResult returns an empty result with OK set, ready for accumulation.
func NewCheckResult() *CheckResult {
	return &CheckResult{
		OK: true,
		Differences: Differences{
			Missing:  []string{},
			Modified: []string{},
			Extra:    []string{},
		},
		Packages: make(map[string]*PackageCheck),
	}
}

// Merge accumulates one package's check outcome into the aggregate.
func (r *CheckResult) Merge(pc *PackageCheck) {
	r.Differences.Missing = append(r.Differences.Missing, pc.Differences.Missing...)
	r.Differences.Modified = append(r.Differences.Modified, pc.Differences.Modified...)
	r.Differences.Extra = append(r.Differences.Extra, pc.Differences.Extra...)
	r.OK = r.OK && pc.OK
	r.Packages[pc.Package] = pc
}

// PackageStatus describes one requested package for the list operation.
type PackageStatus struct {
	Package    string `json:"package"`
	Constraint string `json:"constraint,omitempty"`
	Version    string `json:"version,omitempty"`
	Installed  bool   `json:"installed"`
	Satisfies  bool   `json:"satisfies"`
	Managed    int    `json:"managed_files"`
}

// SortedPackages returns the package names of an extract result in stable order.
func (r *ExtractResult) SortedPackages() []string {
	names := make([]string, 0, len(r.Packages))
	for name := range r.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedPackages returns the package names of a check result in stable order.
func (r *CheckResult) SortedPackages() []string {
	names := make([]string, 0, len(r.Packages))
	for name := range r.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
