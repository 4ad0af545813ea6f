package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prelaunch-dev/prelaunch/internal/buildinfo"
	"github.com/prelaunch-dev/prelaunch/internal/log"
)

// Verbosity flags, also settable through PRELAUNCH_QUIET, PRELAUNCH_VERBOSE
// and PRELAUNCH_DEBUG.
var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "prelaunch",
	Short: "Install and launch a pinned release binary",
	Long: `prelaunch installs the prebuilt binary of a pinned GitHub release into a
package's vendor directory and launches it.

The release (owner, project, version) comes from build-time defaults,
prelaunch.toml in the package root, or PRELAUNCH_* environment variables.
Every download is verified against the release's checksum manifest before
anything is installed.`,
	Version:       buildinfo.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetDefault(log.NewText(os.Stderr, determineLogLevel()))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only print errors")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print informational logs and error suggestions")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Print debug logs")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// determineLogLevel resolves the log level from flags, then environment.
func determineLogLevel() slog.Level {
	if quietFlag || verboseFlag || debugFlag {
		return log.LevelFor(quietFlag && !verboseFlag, verboseFlag, debugFlag)
	}
	return log.LevelFor(
		isTruthy(os.Getenv("PRELAUNCH_QUIET")),
		isTruthy(os.Getenv("PRELAUNCH_VERBOSE")),
		isTruthy(os.Getenv("PRELAUNCH_DEBUG")),
	)
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printUsageError(err)
		exitWithCode(ExitUsage)
	}
}
