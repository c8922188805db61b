package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pubtree/pubtree/pkg/pubtree/config"
	"github.com/pubtree/pubtree/pkg/pubtree/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "pubtree",
		Short: "Distribute package file trees into your project",
		Long: `Pubtree extracts data packages (file trees published through a package
registry) into your working tree and keeps your copy synchronized with the
package source, without ever silently destroying your own files.

Examples:
  pubtree extract @acme/design-tokens        # Extract one package
  pubtree extract                            # Extract packages from .pubtree.yaml
  pubtree check                              # Report drift against the sources
  pubtree list                               # Show installed versions
  pubtree watch                              # Re-extract when sources change
  pubtree history                            # View past runs`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .pubtree.yaml in the project)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output directory receiving extracted files")
	rootCmd.PersistentFlags().StringP("cwd", "C", "", "project directory (default: current directory)")
	rootCmd.PersistentFlags().StringP("manager", "m", "", "package manager: auto, npm, pnpm, yarn, bun")
	rootCmd.PersistentFlags().StringSliceP("pattern", "p", nil, "filename patterns; prefix with ! to exclude (repeatable)")
	rootCmd.PersistentFlags().StringSlice("content-pattern", nil, "content regex patterns (repeatable)")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "output JSON format")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output to stderr")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the digest cache")

	_ = viper.BindPFlag("output_dir", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("cwd", rootCmd.PersistentFlags().Lookup("cwd"))
	_ = viper.BindPFlag("manager", rootCmd.PersistentFlags().Lookup("manager"))
	_ = viper.BindPFlag("patterns", rootCmd.PersistentFlags().Lookup("pattern"))
	_ = viper.BindPFlag("content_patterns", rootCmd.PersistentFlags().Lookup("content-pattern"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))
}

// initConfig reads in the config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".pubtree")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(projectCwd())
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.SetEnvPrefix("PUBTREE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// Missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()

	initLogging()
}

// initLogging wires the logging package from the effective configuration.
func initLogging() {
	cfg := logging.Config{
		Level:      viper.GetString("logging.level"),
		Path:       viper.GetString("logging.path"),
		Components: viper.GetStringMapString("logging.components"),
	}
	if getVerbose() {
		cfg.Level = "debug"
		cfg.ConsoleLevel = "debug"
	}
	if err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
}

// projectCwd returns the project directory from the flag or the process cwd.
func projectCwd() string {
	if cwd := viper.GetString("cwd"); cwd != "" {
		return cwd
	}
	if cwd, ok := rootCmd.PersistentFlags().GetString("cwd"); ok == nil && cwd != "" {
		return cwd
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()

	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		return err
	}
	return nil
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// outputFormat returns the selected output format name.
func outputFormat() string {
	if viper.GetBool("json") {
		return "json"
	}
	return "pretty"
}

// printInfo prints a message unless quiet mode is enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
