package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prelaunch-dev/prelaunch/internal/install"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the installed binary against its install record",
	Long: `Recompute the SHA-256 of the installed binary and compare it with the
digest recorded at install time. A mismatch means the binary was modified
or corrupted after installation.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		inst := newInstaller(cfg)

		rec, err := inst.Verify(context.Background())
		if err != nil {
			printError(fmt.Errorf("verification failed: %w", err), nil)
			if typ, ok := install.TypeOf(err); ok && typ == install.ErrTypeChecksumMismatch {
				exitWithCode(ExitVerifyFailed)
			}
			exitWithCode(ExitGeneral)
		}
		printInfof("%s %s OK (sha256 %s)\n", rec.Project, rec.Version, rec.BinarySHA256)
	},
}
