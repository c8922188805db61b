package main

import (
	"bytes"
	"fmt"

	"github.com/pubtree/pubtree/pkg/pubtree/output"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [package[@constraint]...]",
	Short: "Show installed versions and managed file counts",
	Long: `List reports, for each requested package, the version installed in the
project, whether it satisfies the requested constraint, and how many files in
the output directory are currently managed on its behalf. Packages that are
not installed are listed, not failed.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// runList executes the list command.
func runList(cmd *cobra.Command, args []string) error {
	c, _, err := buildConsumer(args, nil, false)
	if err != nil {
		return err
	}

	statuses, err := c.List(cmd.Context())
	if err != nil {
		return err
	}

	f, err := output.Get(outputFormat())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := f.FormatList(&buf, statuses); err != nil {
		return err
	}
	fmt.Print(buf.String())

	return nil
}
