package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// File is the on-disk configuration stored in <root>/prelaunch.toml.
// Every field is optional; unset fields fall back to build-time defaults.
type File struct {
	Owner         string `toml:"owner,omitempty"`
	Project       string `toml:"project,omitempty"`
	Version       string `toml:"version,omitempty"`
	Host          string `toml:"host,omitempty"`
	BaseURL       string `toml:"base_url,omitempty"`
	Timeout       string `toml:"timeout,omitempty"`
	ArchiveFormat string `toml:"archive_format,omitempty"`
	AllowInsecure *bool  `toml:"allow_insecure,omitempty"`
}

// LoadFile reads the config file at path.
// Returns an empty File if the file doesn't exist.
// Returns an error only for read or parse failures, not missing files.
func LoadFile(path string) (*File, error) {
	f := &File{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), f); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return f, nil
}

// Save writes the configuration to path, creating the parent directory.
func (f *File) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer out.Close()

	if err := toml.NewEncoder(out).Encode(f); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return out.Close()
}

// apply overlays the set fields of f onto cfg.
func (f *File) apply(cfg *Config) error {
	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&cfg.Release.Owner, f.Owner)
	overlay(&cfg.Release.Project, f.Project)
	overlay(&cfg.Release.Version, f.Version)
	overlay(&cfg.Release.Host, f.Host)
	overlay(&cfg.Release.BaseURL, f.BaseURL)
	overlay(&cfg.ArchiveFormat, f.ArchiveFormat)

	if f.Timeout != "" {
		cfg.Timeout = ParseTimeout("timeout", f.Timeout)
	}
	if f.AllowInsecure != nil {
		cfg.AllowInsecure = *f.AllowInsecure
	}
	return nil
}

// Get returns the value of a config key as a string.
// Returns empty string and false if the key doesn't exist.
func (f *File) Get(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "owner":
		return f.Owner, true
	case "project":
		return f.Project, true
	case "version":
		return f.Version, true
	case "host":
		return f.Host, true
	case "base_url":
		return f.BaseURL, true
	case "timeout":
		return f.Timeout, true
	case "archive_format":
		return f.ArchiveFormat, true
	case "allow_insecure":
		if f.AllowInsecure == nil {
			return "", true
		}
		return strconv.FormatBool(*f.AllowInsecure), true
	default:
		return "", false
	}
}

// Set updates a config value from a string.
// Returns an error if the key doesn't exist or the value is invalid.
func (f *File) Set(key, value string) error {
	value = strings.TrimSpace(value)

	switch strings.ToLower(key) {
	case "owner":
		f.Owner = value
	case "project":
		f.Project = value
	case "version":
		if value == "" {
			f.Version = ""
			return nil
		}
		v, err := NormalizeVersion(value)
		if err != nil {
			return err
		}
		f.Version = v
	case "host":
		f.Host = value
	case "base_url":
		f.BaseURL = value
	case "timeout":
		if value != "" {
			if _, err := parseDurationStrict(value); err != nil {
				return fmt.Errorf("invalid value for timeout: %w", err)
			}
		}
		f.Timeout = value
	case "archive_format":
		f.ArchiveFormat = value
	case "allow_insecure":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for allow_insecure: must be true or false")
		}
		f.AllowInsecure = &b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// AvailableKeys returns a list of all configurable keys with descriptions.
func AvailableKeys() map[string]string {
	return map[string]string{
		"owner":          "Release owner (user or organization on the release host)",
		"project":        "Project name; also the name of the installed binary",
		"version":        "Pinned release version (e.g. 1.4.2)",
		"host":           "Release host (default github.com)",
		"base_url":       "Download base URL override for mirrors",
		"timeout":        "Install deadline (e.g. 30s, 5m)",
		"archive_format": "Release archive format (tar.gz, tar.xz, tar.zst, tar.lz, tar.bz2, tar, zip)",
		"allow_insecure": "Allow plain HTTP and private-network redirects (true/false)",
	}
}

// SortedKeys returns the configurable keys in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(AvailableKeys()))
	for k := range AvailableKeys() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseDurationStrict rejects values ParseTimeout would clamp or replace.
func parseDurationStrict(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < minTimeout || d > maxTimeout {
		return 0, fmt.Errorf("must be between %v and %v", minTimeout, maxTimeout)
	}
	return d, nil
}
