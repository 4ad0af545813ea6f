package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cleanAll bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the installed binary",
	Long: `Remove the installed binary and its install record from the vendor
directory. With --all the whole vendor directory is removed.

The next run installs the binary again.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		inst := newInstaller(cfg)

		if err := inst.Clean(context.Background(), cleanAll); err != nil {
			printError(fmt.Errorf("clean failed: %w", err), nil)
			exitWithCode(ExitGeneral)
		}
		if cleanAll {
			printInfof("Removed %s\n", cfg.VendorDir)
			return
		}
		printInfof("Removed %s from %s\n", cfg.Release.Project, cfg.VendorDir)
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "Remove the whole vendor directory")
}
