package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prelaunch-dev/prelaunch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage prelaunch configuration",
	Long: `Manage the release settings stored in prelaunch.toml in the package root.

Environment variables (PRELAUNCH_OWNER, PRELAUNCH_VERSION, ...) override the
file; the file overrides build-time defaults.

Examples:
  prelaunch config get version
  prelaunch config set version 1.4.2
  prelaunch config list`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		file, _ := loadConfigFile()

		value, ok := file.Get(key)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}

		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]
		file, path := loadConfigFile()

		if err := file.Set(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}

		if err := file.Save(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		stored, _ := file.Get(key)
		fmt.Printf("%s = %s\n", key, stored)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configuration values stored in prelaunch.toml",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		file, path := loadConfigFile()

		printInfof("# %s\n", path)
		for _, key := range config.SortedKeys() {
			value, _ := file.Get(key)
			fmt.Printf("%s = %s\n", key, value)
		}
	},
}

// loadConfigFile loads prelaunch.toml without validating the release, so
// an incomplete configuration can still be edited.
func loadConfigFile() (*config.File, string) {
	root, err := config.ResolveRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving package root: %v\n", err)
		exitWithCode(ExitGeneral)
	}

	path := filepath.Join(root, config.FileName)
	file, err := config.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		exitWithCode(ExitGeneral)
	}
	return file, path
}

func printAvailableKeys() {
	keys := config.AvailableKeys()
	for _, k := range config.SortedKeys() {
		fmt.Fprintf(os.Stderr, "  %s - %s\n", k, keys[k])
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}
