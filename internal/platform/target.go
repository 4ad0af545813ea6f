// Package platform maps host OS and CPU identifiers onto the naming
// convention release archives are published under.
//
// The mapping is a closed enumeration: linux, darwin and windows on amd64
// and arm64. Anything else fails with *UnsupportedError rather than falling
// back to a guess.
package platform

import (
	"fmt"
	"strings"
)

// Supported OS tokens as they appear in archive names.
const (
	OSLinux   = "linux"
	OSDarwin  = "darwin"
	OSWindows = "windows"
)

// Supported architecture tokens as they appear in archive names.
const (
	ArchAMD64 = "amd64"
	ArchARM64 = "arm64"
)

// DefaultArchiveExt is the archive extension used when none is given.
const DefaultArchiveExt = "tar.gz"

var osAliases = map[string]string{
	"linux":   OSLinux,
	"darwin":  OSDarwin,
	"mac":     OSDarwin,
	"macos":   OSDarwin,
	"osx":     OSDarwin,
	"windows": OSWindows,
	"win32":   OSWindows,
}

var archAliases = map[string]string{
	"amd64":   ArchAMD64,
	"x86_64":  ArchAMD64,
	"x86-64":  ArchAMD64,
	"x64":     ArchAMD64,
	"arm64":   ArchARM64,
	"aarch64": ArchARM64,
}

// Target describes the release artifact for one host platform.
// Targets are values; once resolved they never change.
type Target struct {
	// OS and Arch are the raw host identifiers the target was resolved from.
	OS   string
	Arch string

	// PlatformToken and ArchToken are the normalized names used in archive
	// file names (e.g. "darwin", "arm64").
	PlatformToken string
	ArchToken     string

	// ArchiveName is the release asset holding the binary,
	// {project}_{platform}_{arch}.{ext}.
	ArchiveName string

	// BinaryName is the archive entry and installed file name,
	// {project} plus ".exe" on windows.
	BinaryName string
}

// String returns "platform/arch".
func (t Target) String() string {
	return t.PlatformToken + "/" + t.ArchToken
}

// IsWindows reports whether the target uses windows naming conventions.
func (t Target) IsWindows() bool {
	return t.PlatformToken == OSWindows
}

// UnsupportedError is returned when an OS/architecture pair has no
// published release artifact.
type UnsupportedError struct {
	OS   string
	Arch string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported platform: %s/%s (supported: linux, darwin, windows on amd64, arm64)", e.OS, e.Arch)
}

// Resolve maps goos/goarch (or their common aliases such as "macos",
// "win32", "x86_64", "aarch64") to a Target for project, using the default
// tar.gz archive extension.
func Resolve(goos, goarch, project string) (Target, error) {
	return ResolveWithExt(goos, goarch, project, DefaultArchiveExt)
}

// ResolveWithExt is Resolve with an explicit archive extension such as
// "tar.zst" or "zip". A leading dot is ignored.
func ResolveWithExt(goos, goarch, project, ext string) (Target, error) {
	platformToken, okOS := osAliases[strings.ToLower(strings.TrimSpace(goos))]
	archToken, okArch := archAliases[strings.ToLower(strings.TrimSpace(goarch))]
	if !okOS || !okArch {
		return Target{}, &UnsupportedError{OS: goos, Arch: goarch}
	}

	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = DefaultArchiveExt
	}

	t := Target{
		OS:            goos,
		Arch:          goarch,
		PlatformToken: platformToken,
		ArchToken:     archToken,
		ArchiveName:   fmt.Sprintf("%s_%s_%s.%s", project, platformToken, archToken, ext),
		BinaryName:    project,
	}
	if t.IsWindows() {
		t.BinaryName += ".exe"
	}
	return t, nil
}
