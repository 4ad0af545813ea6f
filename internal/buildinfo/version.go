// Package buildinfo reports the prelaunch build version.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// LinkedVersion is set with -ldflags "-X .../buildinfo.LinkedVersion=v1.2.3"
// by release builds and takes precedence over module metadata.
var LinkedVersion string

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Version returns the prelaunch version: the linked version, the module
// version for `go install` builds, or "dev[-<rev>[-dirty]]" otherwise.
func Version() string {
	if v := strings.TrimSpace(LinkedVersion); v != "" {
		return v
	}

	info, ok := readBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return devVersion(info)
}

func devVersion(info *debug.BuildInfo) string {
	var revision string
	var modified bool

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}

	if revision == "" {
		return "dev"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}

	version := "dev-" + revision
	if modified {
		version += "-dirty"
	}
	return version
}

// UserAgent returns the User-Agent sent to release hosts.
func UserAgent() string {
	return fmt.Sprintf("prelaunch/%s (%s/%s)", Version(), runtime.GOOS, runtime.GOARCH)
}

// String returns the one-line version banner printed by `prelaunch version`.
func String() string {
	return fmt.Sprintf("prelaunch %s (%s, %s/%s)", Version(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
