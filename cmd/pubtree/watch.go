package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/pubtree/pubtree/pkg/pubtree/logging"
	"github.com/pubtree/pubtree/pkg/pubtree/resolver"
	"github.com/pubtree/pubtree/pkg/pubtree/watcher"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchCmd = &cobra.Command{
	Use:   "watch [package[@constraint]...]",
	Short: "Re-extract packages whenever their sources change",
	Long: `Watch performs an initial extraction, then watches every package's
installed source tree and re-extracts on change. Changes are debounced so an
editor save or a package manager install triggers a single sync. Stop with
Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", watcher.DefaultDebounce, "quiet period before a change triggers a sync")
	watchCmd.Flags().BoolP("force", "f", false, "overwrite conflicting unmanaged files")
	watchCmd.Flags().BoolP("gitignore", "g", false, "maintain .gitignore entries for managed files")

	_ = viper.BindPFlag("debounce", watchCmd.Flags().Lookup("debounce"))
	_ = viper.BindPFlag("force", watchCmd.Flags().Lookup("force"))
	_ = viper.BindPFlag("gitignore", watchCmd.Flags().Lookup("gitignore"))

	rootCmd.AddCommand(watchCmd)
}

// runWatch executes the watch command.
func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, _, err := buildConsumer(args, progressSink(), false)
	if err != nil {
		return err
	}

	// Initial sync; installs anything missing before watches are placed.
	if _, err := c.Extract(ctx); err != nil {
		return err
	}

	requests, err := buildRequests(args)
	if err != nil {
		return err
	}

	w, err := watcher.New(viper.GetDuration("debounce"))
	if err != nil {
		return err
	}
	defer w.Close()

	for _, req := range requests {
		spec, err := resolver.ParseSpec(req.Spec)
		if err != nil {
			return err
		}
		pkg, err := c.Resolver().Locate(spec.Name)
		if err != nil {
			return err
		}
		if err := w.Watch(pkg.Root); err != nil {
			return err
		}
		printInfo("Watching %s (%s)", spec.Name, pkg.Root)
	}

	log := logging.Get("watcher")
	w.Run(ctx, func() {
		start := time.Now()
		if _, err := c.Extract(ctx); err != nil {
			log.Error("re-extract failed", "error", err)
			printError("re-extract failed: %v", err)
			return
		}
		log.Info("re-extract finished", "elapsed", time.Since(start))
	})

	printInfo("Stopped.")
	return nil
}
