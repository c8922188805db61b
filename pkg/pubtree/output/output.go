// Package output renders extract, check, list and history results for the
// CLI, either as styled text or as indented JSON.
//
// Basic usage:
//
//	f, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := f.FormatExtract(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"

	"github.com/pubtree/pubtree/pkg/pubtree/history"
	"github.com/pubtree/pubtree/pkg/pubtree/types"
)

// Formatter renders each result kind into a buffer.
type Formatter interface {
	FormatExtract(w *bytes.Buffer, r *types.ExtractResult) error
	FormatCheck(w *bytes.Buffer, r *types.CheckResult) error
	FormatList(w *bytes.Buffer, statuses []types.PackageStatus) error
	FormatHistory(w *bytes.Buffer, entries []history.Entry) error
}

// Get returns the formatter for a format name: "pretty" or "json".
func Get(name string) (Formatter, error) {
	switch name {
	case "pretty", "":
		return &PrettyFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %q", name)
	}
}
