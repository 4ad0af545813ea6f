package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// projectNamePattern restricts owner and project names to characters that are
// safe in URLs and file names.
var projectNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Release identifies a single published release on the release host.
type Release struct {
	Host    string // e.g. "github.com"
	Owner   string // user or organization
	Project string // repository and binary name
	Version string // pinned version, without the leading "v"

	// BaseURL replaces the computed download URL when set (mirrors, tests).
	BaseURL string
}

// NormalizeVersion validates a pinned version string and strips a leading "v".
// The original spelling is kept otherwise ("1.2" stays "1.2") because it is
// used verbatim in release URLs and manifest names.
func NormalizeVersion(v string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(v), "v")
	if trimmed == "" {
		return "", fmt.Errorf("release version is not configured (set %s or %q in %s)", EnvVersion, "version", FileName)
	}
	if _, err := semver.NewVersion(trimmed); err != nil {
		return "", fmt.Errorf("invalid release version %q: %w", v, err)
	}
	return trimmed, nil
}

// Validate checks that the coordinates fully determine a release.
func (r Release) Validate() error {
	if r.Owner == "" {
		return fmt.Errorf("release owner is not configured (set %s or %q in %s)", EnvOwner, "owner", FileName)
	}
	if r.Project == "" {
		return fmt.Errorf("project is not configured (set %s or %q in %s)", EnvProject, "project", FileName)
	}
	if !projectNamePattern.MatchString(r.Owner) {
		return fmt.Errorf("invalid release owner %q", r.Owner)
	}
	if !projectNamePattern.MatchString(r.Project) {
		return fmt.Errorf("invalid project name %q", r.Project)
	}
	if r.Version == "" {
		return fmt.Errorf("release version is not configured (set %s or %q in %s)", EnvVersion, "version", FileName)
	}
	if r.BaseURL == "" && r.Host == "" {
		return fmt.Errorf("release host is not configured")
	}
	return nil
}

// Tag returns the git tag of the release ("v" + version).
func (r Release) Tag() string {
	return "v" + r.Version
}

// DownloadBaseURL returns https://<host>/<owner>/<project>/releases/download/v<version>,
// or the BaseURL override without its trailing slash.
func (r Release) DownloadBaseURL() string {
	if r.BaseURL != "" {
		return strings.TrimRight(r.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s/%s/%s/releases/download/%s", r.Host, r.Owner, r.Project, r.Tag())
}

// ManifestName returns the checksum manifest file name, {project}_{version}_checksums.txt.
func (r Release) ManifestName() string {
	return fmt.Sprintf("%s_%s_checksums.txt", r.Project, r.Version)
}

// ManifestURL returns the URL of the checksum manifest.
func (r Release) ManifestURL() string {
	return r.DownloadBaseURL() + "/" + r.ManifestName()
}

// AssetURL returns the URL of a release asset by file name.
func (r Release) AssetURL(name string) string {
	return r.DownloadBaseURL() + "/" + name
}
