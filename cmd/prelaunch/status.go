package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/prelaunch-dev/prelaunch/internal/config"
	"github.com/prelaunch-dev/prelaunch/internal/install"
	"github.com/prelaunch-dev/prelaunch/internal/log"
)

var statusJSON bool

// statusOutput is the --json form of `prelaunch status`.
type statusOutput struct {
	Project     string     `json:"project"`
	Version     string     `json:"version"`
	Platform    string     `json:"platform"`
	Libc        string     `json:"libc,omitempty"`
	ManifestURL string     `json:"manifest_url"`
	ArchiveURL  string     `json:"archive_url"`
	BinaryPath  string     `json:"binary_path"`
	Installed   bool       `json:"installed"`
	Current     bool       `json:"current"`
	Size        int64      `json:"size,omitempty"`
	SHA256      string     `json:"sha256,omitempty"`
	InstalledAt *time.Time `json:"installed_at,omitempty"`
	Locked      bool       `json:"locked"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the pinned release and the installed binary",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		inst := newInstaller(cfg)

		st, err := inst.Status()
		if err != nil {
			printError(err, nil)
			exitWithCode(ExitGeneral)
		}

		if statusJSON {
			printJSON(toStatusOutput(cfg, st))
			return
		}
		printStatus(cfg, st)
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print status as JSON")
}

func toStatusOutput(cfg *config.Config, st *install.Status) statusOutput {
	out := statusOutput{
		Project:     cfg.Release.Project,
		Version:     cfg.Release.Version,
		Platform:    st.Target.String(),
		Libc:        st.Libc,
		ManifestURL: log.SanitizeURL(st.ManifestURL),
		ArchiveURL:  log.SanitizeURL(st.ArchiveURL),
		BinaryPath:  st.BinaryPath,
		Installed:   st.Installed,
		Current:     st.Current,
		Size:        st.Size,
		Locked:      st.Locked,
	}
	if st.Record != nil {
		out.SHA256 = st.Record.BinarySHA256
		at := st.Record.InstalledAt
		out.InstalledAt = &at
	}
	return out
}

func printStatus(cfg *config.Config, st *install.Status) {
	platform := st.Target.String()
	if st.Libc != "" {
		platform += " (" + st.Libc + ")"
	}

	fmt.Printf("Project:   %s/%s %s\n", cfg.Release.Owner, cfg.Release.Project, cfg.Release.Tag())
	fmt.Printf("Platform:  %s\n", platform)
	fmt.Printf("Manifest:  %s\n", log.SanitizeURL(st.ManifestURL))
	fmt.Printf("Archive:   %s\n", log.SanitizeURL(st.ArchiveURL))
	fmt.Printf("Binary:    %s\n", st.BinaryPath)

	switch {
	case !st.Installed:
		fmt.Println("Installed: no")
	case st.Record == nil:
		fmt.Printf("Installed: yes, %s, no install record\n", humanize.IBytes(uint64(st.Size)))
	default:
		state := "current"
		if !st.Current {
			state = "outdated, recorded " + st.Record.Version
		}
		fmt.Printf("Installed: yes, %s, %s\n", humanize.IBytes(uint64(st.Size)), state)
		fmt.Printf("SHA-256:   %s\n", st.Record.BinarySHA256)
		fmt.Printf("Since:     %s\n", humanize.Time(st.Record.InstalledAt))
	}

	if st.Locked {
		holder := "unknown process"
		if st.LockHolder != nil {
			holder = fmt.Sprintf("pid %d (%s, %s)", st.LockHolder.PID, st.LockHolder.Purpose,
				humanize.Time(st.LockHolder.AcquiredAt))
		}
		fmt.Printf("Locked by: %s\n", holder)
	}
}
