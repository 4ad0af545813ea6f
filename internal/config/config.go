package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// EnvRoot is the environment variable to override the package root directory
	EnvRoot = "PRELAUNCH_ROOT"

	// EnvOwner overrides the release owner (user or organization)
	EnvOwner = "PRELAUNCH_OWNER"

	// EnvProject overrides the project name
	EnvProject = "PRELAUNCH_PROJECT"

	// EnvVersion overrides the pinned release version
	EnvVersion = "PRELAUNCH_VERSION"

	// EnvHost overrides the release host
	EnvHost = "PRELAUNCH_HOST"

	// EnvBaseURL replaces the computed release download URL entirely (mirrors)
	EnvBaseURL = "PRELAUNCH_BASE_URL"

	// EnvTimeout is the environment variable to configure the install deadline
	EnvTimeout = "PRELAUNCH_TIMEOUT"

	// EnvArchiveFormat overrides the release archive format
	EnvArchiveFormat = "PRELAUNCH_ARCHIVE_FORMAT"

	// EnvAllowInsecure permits plain HTTP and private-network redirect targets
	EnvAllowInsecure = "PRELAUNCH_ALLOW_INSECURE"

	// DefaultHost is the release host used when none is configured
	DefaultHost = "github.com"

	// DefaultTimeout bounds a whole install run (10 minutes)
	DefaultTimeout = 10 * time.Minute

	// DefaultArchiveFormat is the format release archives are published in
	DefaultArchiveFormat = "tar.gz"

	// FileName is the name of the config file inside the package root
	FileName = "prelaunch.toml"

	// VendorDirName is the directory under the package root holding the binary
	VendorDirName = "vendor"

	minTimeout = 1 * time.Second
	maxTimeout = 1 * time.Hour
)

// Build-time defaults, injected with -ldflags "-X ...". A launcher built for a
// specific project carries its coordinates here so no config file is needed.
var (
	DefaultOwner   string
	DefaultProject string
	DefaultVersion string

	// DefaultRootOverride replaces the executable-relative package root.
	// PRELAUNCH_ROOT still takes precedence.
	DefaultRootOverride string
)

// Config holds resolved prelaunch settings
type Config struct {
	RootDir       string // package root
	VendorDir     string // <root>/vendor
	ConfigFile    string // <root>/prelaunch.toml
	Release       Release
	Timeout       time.Duration
	ArchiveFormat string
	AllowInsecure bool
}

// Load resolves the package root and builds the configuration from build-time
// defaults, the config file and the environment, in increasing precedence.
func Load() (*Config, error) {
	root, err := ResolveRoot()
	if err != nil {
		return nil, err
	}
	return LoadFrom(root)
}

// LoadFrom builds the configuration for an explicit package root.
func LoadFrom(root string) (*Config, error) {
	cfg := defaults(root)

	file, err := LoadFile(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := file.apply(cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if cfg.Release.Version != "" {
		version, err := NormalizeVersion(cfg.Release.Version)
		if err != nil {
			return nil, err
		}
		cfg.Release.Version = version
	}

	if err := cfg.Release.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults(root string) *Config {
	return &Config{
		RootDir:    root,
		VendorDir:  filepath.Join(root, VendorDirName),
		ConfigFile: filepath.Join(root, FileName),
		Release: Release{
			Host:    DefaultHost,
			Owner:   DefaultOwner,
			Project: DefaultProject,
			Version: DefaultVersion,
		},
		Timeout:       DefaultTimeout,
		ArchiveFormat: DefaultArchiveFormat,
	}
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Release.Owner, EnvOwner)
	setFromEnv(&cfg.Release.Project, EnvProject)
	setFromEnv(&cfg.Release.Version, EnvVersion)
	setFromEnv(&cfg.Release.Host, EnvHost)
	setFromEnv(&cfg.Release.BaseURL, EnvBaseURL)
	setFromEnv(&cfg.ArchiveFormat, EnvArchiveFormat)

	if v := os.Getenv(EnvTimeout); v != "" {
		cfg.Timeout = ParseTimeout(EnvTimeout, v)
	}
	if v := os.Getenv(EnvAllowInsecure); v != "" {
		cfg.AllowInsecure = ParseBool(EnvAllowInsecure, v, false)
	}
}

func setFromEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// ResolveRoot returns the package root: PRELAUNCH_ROOT, then the build-time
// override, then the parent of the directory holding the running executable
// (the <root>/bin/<launcher> layout npm and pip packages use).
func ResolveRoot() (string, error) {
	if root := os.Getenv(EnvRoot); root != "" {
		return filepath.Abs(root)
	}
	if DefaultRootOverride != "" {
		return DefaultRootOverride, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(filepath.Dir(exe)), nil
}

// ParseTimeout parses a duration setting and clamps it to 1s..1h.
// Invalid values fall back to DefaultTimeout with a warning on stderr.
// source names the setting in warnings.
func ParseTimeout(source, value string) time.Duration {
	duration, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			source, value, DefaultTimeout)
		return DefaultTimeout
	}

	if duration < minTimeout {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum %v\n",
			source, duration, minTimeout)
		return minTimeout
	}
	if duration > maxTimeout {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum %v\n",
			source, duration, maxTimeout)
		return maxTimeout
	}

	return duration
}

// ParseBool accepts "true", "1", "yes", "on" and their negations
// (case-insensitive). Anything else yields def with a warning on stderr.
func ParseBool(source, value string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			source, value, def)
		return def
	}
}

// EnsureVendorDir creates the vendor directory if it does not exist.
func (c *Config) EnsureVendorDir() error {
	if err := os.MkdirAll(c.VendorDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.VendorDir, err)
	}
	return nil
}
