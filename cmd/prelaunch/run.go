package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/prelaunch-dev/prelaunch/internal/launcher"
	"github.com/prelaunch-dev/prelaunch/internal/log"
)

var runCmd = &cobra.Command{
	Use:   "run [-- args...]",
	Short: "Run the installed binary, installing it first if needed",
	Long: `Run the pinned binary with the given arguments. The binary is installed
first when it is missing or a different version is installed.

Arguments after -- are passed to the binary verbatim; its exit code becomes
the exit code of prelaunch.

Examples:
  prelaunch run -- --help
  prelaunch run -- serve --port 8080`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		inst := newInstaller(cfg)

		installCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		path, err := inst.EnsureInstalled(installCtx)
		stop()
		if err != nil {
			failInstall(cfg.Release.Project, err)
		}

		code, err := launcher.Run(context.Background(), launcher.Command{
			Project: cfg.Release.Project,
			Path:    path,
			Args:    args,
		}, log.Default())
		if err != nil {
			printError(err, nil)
		}
		exitWithCode(code)
	},
}
