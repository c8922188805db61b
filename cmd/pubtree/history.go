package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pubtree/pubtree/pkg/pubtree/config"
	"github.com/pubtree/pubtree/pkg/pubtree/history"
	"github.com/pubtree/pubtree/pkg/pubtree/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "View past extract and check runs",
	Long: `History lists the journaled runs, newest first. Pass a run ID to show the
full entry for a single run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of runs to list (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

// runHistory executes the history command.
func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("history.path")
	if path == "" {
		path = config.DefaultHistoryPath()
	}
	j, err := history.New(path)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		entry, err := j.Get(args[0])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	entries, err := j.List(limit)
	if err != nil {
		return err
	}

	f, err := output.Get(outputFormat())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := f.FormatHistory(&buf, entries); err != nil {
		return err
	}
	fmt.Print(buf.String())

	return nil
}
