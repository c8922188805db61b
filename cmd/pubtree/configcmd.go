package main

import (
	"fmt"

	"github.com/pubtree/pubtree/pkg/pubtree/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pubtree configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default global config file",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow prints the effective configuration after merging config
// files, environment variables and flags.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(projectCwd())
	if err != nil {
		return err
	}

	if used := viper.ConfigFileUsed(); used != "" {
		printInfo("# config file: %s", used)
	} else {
		printInfo("# no config file found; showing defaults")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

// runConfigInit writes a commented default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := config.WriteDefault()
	if err != nil {
		return err
	}
	printInfo("Config file: %s", path)
	return nil
}
