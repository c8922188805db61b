package main

import (
	"bytes"
	"fmt"

	"github.com/pubtree/pubtree/pkg/pubtree/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var extractCmd = &cobra.Command{
	Use:   "extract [package[@constraint]...]",
	Short: "Extract package file trees into the output directory",
	Long: `Extract copies each package's candidate files into the output directory,
records provenance in per-directory marker files, and removes files the
package no longer provides. Pre-existing files pubtree does not manage are
never overwritten unless --force is given.

With no arguments, the packages configured in .pubtree.yaml are extracted.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolP("force", "f", false, "overwrite conflicting unmanaged files")
	extractCmd.Flags().BoolP("dry-run", "d", false, "report what would change without writing")
	extractCmd.Flags().BoolP("gitignore", "g", false, "maintain .gitignore entries for managed files")
	extractCmd.Flags().BoolP("upgrade", "u", false, "upgrade packages through the package manager first")

	_ = viper.BindPFlag("force", extractCmd.Flags().Lookup("force"))
	_ = viper.BindPFlag("dry_run", extractCmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("gitignore", extractCmd.Flags().Lookup("gitignore"))
	_ = viper.BindPFlag("upgrade", extractCmd.Flags().Lookup("upgrade"))

	rootCmd.AddCommand(extractCmd)
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, args []string) error {
	c, cache, err := buildConsumer(args, progressSink(), false)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	result, err := c.Extract(cmd.Context())
	if err != nil {
		return err
	}

	journalExtract(openJournal(), result, viper.GetString("output_dir"))

	f, err := output.Get(outputFormat())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := f.FormatExtract(&buf, result); err != nil {
		return err
	}
	fmt.Print(buf.String())

	return nil
}
