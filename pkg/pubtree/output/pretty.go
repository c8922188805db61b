package output

import (
	"bytes"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pubtree/pubtree/pkg/pubtree/history"
	"github.com/pubtree/pubtree/pkg/pubtree/types"
)

// PrettyFormatter renders results as styled, human-readable text.
type PrettyFormatter struct{}

// FormatExtract writes one section per package with its change lists.
func (f *PrettyFormatter) FormatExtract(w *bytes.Buffer, r *types.ExtractResult) error {
	for _, name := range r.SortedPackages() {
		pc := r.Packages[name]
		fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s@%s", pc.Package, pc.Version)))
		writePaths(w, AddedStyle.Render("  + "), pc.Added)
		writePaths(w, ModifiedStyle.Render("  ~ "), pc.Modified)
		writePaths(w, DeletedStyle.Render("  - "), pc.Deleted)
		if len(pc.Skipped) > 0 {
			fmt.Fprintln(w, MutedStyle.Render(fmt.Sprintf("  %d unchanged", len(pc.Skipped))))
		}
	}

	summary := fmt.Sprintf("%d added, %d modified, %d deleted, %d unchanged",
		len(r.Added), len(r.Modified), len(r.Deleted), len(r.Skipped))
	if r.DryRun {
		summary += " (dry run, nothing written)"
	}
	fmt.Fprintln(w, MutedStyle.Render(summary))
	return nil
}

// FormatCheck writes per-package drift and the overall verdict.
func (f *PrettyFormatter) FormatCheck(w *bytes.Buffer, r *types.CheckResult) error {
	for _, name := range r.SortedPackages() {
		pc := r.Packages[name]
		fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s@%s", pc.Package, pc.Version)))
		writePaths(w, DeletedStyle.Render("  missing  "), pc.Differences.Missing)
		writePaths(w, ModifiedStyle.Render("  modified "), pc.Differences.Modified)
		writePaths(w, MutedStyle.Render("  extra    "), pc.Differences.Extra)
		if pc.OK && len(pc.Differences.Extra) == 0 {
			fmt.Fprintln(w, MutedStyle.Render("  in sync"))
		}
	}

	if r.OK {
		fmt.Fprintln(w, OKStyle.Render("ok"))
	} else {
		fmt.Fprintln(w, DriftStyle.Render(fmt.Sprintf("drift detected: %d missing, %d modified",
			len(r.Differences.Missing), len(r.Differences.Modified))))
	}
	return nil
}

// FormatList writes one line per requested package.
func (f *PrettyFormatter) FormatList(w *bytes.Buffer, statuses []types.PackageStatus) error {
	for _, s := range statuses {
		name := s.Package
		if s.Constraint != "" {
			name += "@" + s.Constraint
		}

		switch {
		case !s.Installed:
			fmt.Fprintf(w, "%s %s\n", TitleStyle.Render(name), DeletedStyle.Render("not installed"))
		case !s.Satisfies:
			fmt.Fprintf(w, "%s %s %s\n", TitleStyle.Render(name), s.Version,
				ModifiedStyle.Render("(does not satisfy constraint)"))
		default:
			fmt.Fprintf(w, "%s %s %s\n", TitleStyle.Render(name), s.Version,
				MutedStyle.Render(fmt.Sprintf("%d managed files", s.Managed)))
		}
	}
	return nil
}

// FormatHistory writes one line per journaled run, newest first.
func (f *PrettyFormatter) FormatHistory(w *bytes.Buffer, entries []history.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, MutedStyle.Render("no recorded runs"))
		return nil
	}

	for _, e := range entries {
		var changed int
		for _, p := range e.Packages {
			changed += p.Added + p.Modified + p.Deleted
		}
		line := fmt.Sprintf("%-8s %-28s %d packages, %d changes",
			e.Operation, humanize.Time(e.Timestamp), len(e.Packages), changed)
		if e.DryRun {
			line += " (dry run)"
		}
		fmt.Fprintf(w, "%s  %s\n", MutedStyle.Render(e.ID), line)
	}
	return nil
}

// writePaths renders one prefixed line per path; empty lists print nothing.
func writePaths(w *bytes.Buffer, prefix string, paths []string) {
	for _, p := range paths {
		fmt.Fprintf(w, "%s%s\n", prefix, p)
	}
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
