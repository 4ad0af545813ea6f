package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prelaunch-dev/prelaunch/internal/buildinfo"
	"github.com/prelaunch-dev/prelaunch/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the prelaunch version and the pinned release",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(buildinfo.String())

		cfg, err := config.Load()
		if err != nil {
			return
		}
		fmt.Printf("release: %s/%s %s\n", cfg.Release.Owner, cfg.Release.Project, cfg.Release.Tag())
	},
}
