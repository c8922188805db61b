package output

import (
	"bytes"
	"encoding/json"

	"github.com/pubtree/pubtree/pkg/pubtree/history"
	"github.com/pubtree/pubtree/pkg/pubtree/types"
)

// JSONFormatter renders each result as a single indented JSON document.
type JSONFormatter struct{}

// FormatExtract writes the extract result as JSON.
func (f *JSONFormatter) FormatExtract(w *bytes.Buffer, r *types.ExtractResult) error {
	return writeJSON(w, r)
}

// FormatCheck writes the check result as JSON.
func (f *JSONFormatter) FormatCheck(w *bytes.Buffer, r *types.CheckResult) error {
	return writeJSON(w, r)
}

// FormatList writes the package statuses as a JSON array.
func (f *JSONFormatter) FormatList(w *bytes.Buffer, statuses []types.PackageStatus) error {
	return writeJSON(w, statuses)
}

// FormatHistory writes the journal entries as a JSON array.
func (f *JSONFormatter) FormatHistory(w *bytes.Buffer, entries []history.Entry) error {
	return writeJSON(w, entries)
}

// writeJSON encodes v with two-space indentation.
func writeJSON(w *bytes.Buffer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
