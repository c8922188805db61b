package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pubtree/pubtree/pkg/pubtree/history"
	"github.com/pubtree/pubtree/pkg/pubtree/types"
)

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  string
		want    interface{}
		wantErr bool
	}{
		{name: "pretty", format: "pretty", want: &PrettyFormatter{}},
		{name: "empty defaults to pretty", format: "", want: &PrettyFormatter{}},
		{name: "json", format: "json", want: &JSONFormatter{}},
		{name: "unknown", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, err := Get(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}
}

func sampleExtract() *types.ExtractResult {
	r := types.NewExtractResult()
	r.Merge(&types.PackageChanges{
		Package:  "@acme/tokens",
		Version:  "1.2.0",
		Added:    []string{"colors.json"},
		Modified: []string{"fonts/body.json"},
		Deleted:  []string{},
		Skipped:  []string{"spacing.json"},
	})
	return r
}

func TestPrettyFormatter_FormatExtract(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).FormatExtract(&buf, sampleExtract()))

	out := buf.String()
	assert.Contains(t, out, "@acme/tokens@1.2.0")
	assert.Contains(t, out, "colors.json")
	assert.Contains(t, out, "fonts/body.json")
	assert.Contains(t, out, "1 added, 1 modified, 0 deleted, 1 unchanged")
}

func TestPrettyFormatter_FormatExtract_DryRun(t *testing.T) {
	t.Parallel()

	r := sampleExtract()
	r.DryRun = true

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).FormatExtract(&buf, r))
	assert.Contains(t, buf.String(), "dry run, nothing written")
}

func TestPrettyFormatter_FormatCheck(t *testing.T) {
	t.Parallel()

	t.Run("clean run prints ok", func(t *testing.T) {
		t.Parallel()
		r := types.NewCheckResult()
		r.Merge(&types.PackageCheck{Package: "pkg", Version: "1.0.0", OK: true})

		var buf bytes.Buffer
		require.NoError(t, (&PrettyFormatter{}).FormatCheck(&buf, r))
		assert.Contains(t, buf.String(), "ok")
	})

	t.Run("drift names the classification", func(t *testing.T) {
		t.Parallel()
		r := types.NewCheckResult()
		r.Merge(&types.PackageCheck{
			Package: "pkg",
			Version: "1.0.0",
			OK:      false,
			Differences: types.Differences{
				Missing:  []string{"gone.json"},
				Modified: []string{"edited.json"},
			},
		})

		var buf bytes.Buffer
		require.NoError(t, (&PrettyFormatter{}).FormatCheck(&buf, r))
		out := buf.String()
		assert.Contains(t, out, "gone.json")
		assert.Contains(t, out, "edited.json")
		assert.Contains(t, out, "drift detected: 1 missing, 1 modified")
	})
}

func TestPrettyFormatter_FormatList(t *testing.T) {
	t.Parallel()

	statuses := []types.PackageStatus{
		{Package: "a", Constraint: "^1.0.0", Version: "1.2.0", Installed: true, Satisfies: true, Managed: 4},
		{Package: "b", Version: "0.1.0", Installed: true, Satisfies: false},
		{Package: "c", Installed: false},
	}

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).FormatList(&buf, statuses))

	out := buf.String()
	assert.Contains(t, out, "a@^1.0.0")
	assert.Contains(t, out, "4 managed files")
	assert.Contains(t, out, "does not satisfy constraint")
	assert.Contains(t, out, "not installed")
}

func TestPrettyFormatter_FormatHistory(t *testing.T) {
	t.Parallel()

	t.Run("empty journal", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, (&PrettyFormatter{}).FormatHistory(&buf, nil))
		assert.Contains(t, buf.String(), "no recorded runs")
	})

	t.Run("lists runs", func(t *testing.T) {
		t.Parallel()
		entries := []history.Entry{
			{
				ID:        "extract-2026-08-25T10-00-00-abcd1234",
				Timestamp: time.Now().Add(-time.Hour),
				Operation: history.OpExtract,
				Packages:  []history.PackageSummary{{Package: "pkg", Version: "1.0.0", Added: 2}},
			},
		}

		var buf bytes.Buffer
		require.NoError(t, (&PrettyFormatter{}).FormatHistory(&buf, entries))
		out := buf.String()
		assert.Contains(t, out, "extract-2026-08-25T10-00-00-abcd1234")
		assert.Contains(t, out, "1 packages, 2 changes")
	})
}

func TestJSONFormatter_FormatExtract(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).FormatExtract(&buf, sampleExtract()))

	var decoded types.ExtractResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{"colors.json"}, decoded.Added)
	require.Contains(t, decoded.Packages, "@acme/tokens")
	assert.Equal(t, "1.2.0", decoded.Packages["@acme/tokens"].Version)
}

func TestJSONFormatter_FormatList(t *testing.T) {
	t.Parallel()

	statuses := []types.PackageStatus{{Package: "pkg", Installed: true, Version: "1.0.0"}}

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).FormatList(&buf, statuses))

	var decoded []types.PackageStatus
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "pkg", decoded[0].Package)
}
