package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var installIfMissing bool

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download, verify and install the pinned binary",
	Long: `Download the release archive for this platform, verify it against the
release's checksum manifest and extract the binary into the vendor directory.

The binary is replaced atomically, so running install again is safe and
leaves the same result. Use --if-missing to skip the download when the
pinned version is already installed.

Examples:
  prelaunch install
  prelaunch install --if-missing
  PRELAUNCH_VERSION=1.4.0 prelaunch install`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		inst := newInstaller(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if installIfMissing {
			path, err := inst.EnsureInstalled(ctx)
			if err != nil {
				failInstall(cfg.Release.Project, err)
			}
			printInfof("%s %s is installed at %s\n", cfg.Release.Project, cfg.Release.Version, path)
			return
		}

		res, err := inst.Install(ctx)
		if err != nil {
			failInstall(cfg.Release.Project, err)
		}
		printInfof("Installed %s %s (%s) to %s\n", cfg.Release.Project, cfg.Release.Version, res.Target, res.BinaryPath)
	},
}

func init() {
	installCmd.Flags().BoolVar(&installIfMissing, "if-missing", false, "Skip the install when the pinned version is already present")
}
