// Command prelaunch-shim is installed under the project's name in a
// package's bin directory. It installs the pinned binary on first use and
// then runs it with the given arguments.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/prelaunch-dev/prelaunch/internal/config"
	"github.com/prelaunch-dev/prelaunch/internal/errmsg"
	"github.com/prelaunch-dev/prelaunch/internal/install"
	"github.com/prelaunch-dev/prelaunch/internal/launcher"
	"github.com/prelaunch-dev/prelaunch/internal/log"
	"github.com/prelaunch-dev/prelaunch/internal/progress"
)

const exitFailure = 1

// exitCode is set by the root command and becomes the process exit status.
var exitCode int

var rootCmd = &cobra.Command{
	Use:                "prelaunch-shim [args...]",
	Short:              "Install on first use, then run the pinned binary",
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = run(args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		return nil
	},
}

// run installs the pinned binary if needed and runs it with args, wired to
// the given stdio. It returns the exit code for the process.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := log.NewText(stderr, log.LevelFor(false, isSet("PRELAUNCH_VERBOSE"), isSet("PRELAUNCH_DEBUG")))
	log.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "prelaunch: %s\n", errmsg.Line(err))
		return exitFailure
	}
	project := cfg.Release.Project

	opts := []install.Option{install.WithLogger(logger)}
	if f, ok := stderr.(*os.File); ok && progress.ShouldShow(f) {
		opts = append(opts, install.WithProgress(f))
	}
	inst, err := install.New(cfg, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "%s install failed: %s\n", project, errmsg.Line(err))
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	path, err := inst.EnsureInstalled(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(stderr, "%s install failed: %s\n", project, errmsg.Line(err))
		return exitFailure
	}

	code, err := launcher.Run(context.Background(), launcher.Command{
		Project: project,
		Path:    path,
		Args:    args,
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
	}, logger)
	if err != nil {
		fmt.Fprintln(stderr, errmsg.Line(err))
	}
	return code
}

func isSet(key string) bool {
	v := os.Getenv(key)
	return v != "" && v != "0" && v != "false"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
	os.Exit(exitCode)
}
