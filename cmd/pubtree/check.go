package main

import (
	"bytes"
	"fmt"

	"github.com/pubtree/pubtree/pkg/pubtree/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errDrift makes `pubtree check` exit non-zero on drift without printing a
// second error message.
var errDrift = fmt.Errorf("drift detected")

var checkCmd = &cobra.Command{
	Use:   "check [package[@constraint]...]",
	Short: "Report drift between extracted files and their sources",
	Long: `Check recomputes what extract would write and compares it against the
current on-disk state: files that vanished are missing, files whose content
no longer matches the package source are modified, and candidates that were
never extracted are extra. The command exits non-zero when any file is
missing or modified.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// runCheck executes the check command.
func runCheck(cmd *cobra.Command, args []string) error {
	c, cache, err := buildConsumer(args, nil, true)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	result, err := c.Check(cmd.Context())
	if err != nil {
		return err
	}

	journalCheck(openJournal(), result, viper.GetString("output_dir"))

	f, err := output.Get(outputFormat())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := f.FormatCheck(&buf, result); err != nil {
		return err
	}
	fmt.Print(buf.String())

	if !result.OK {
		cmd.SilenceErrors = true
		return errDrift
	}
	return nil
}
