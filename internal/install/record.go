package install

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// RecordFileName is the install record kept next to the binary.
const RecordFileName = ".prelaunch-state.toml"

// Record describes the installed binary. It is written after every successful
// install and read by EnsureInstalled, Verify and Status.
type Record struct {
	Project       string    `toml:"project"`
	Version       string    `toml:"version"`
	Platform      string    `toml:"platform"`
	Archive       string    `toml:"archive"`
	ArchiveDigest string    `toml:"archive_digest"`
	Binary        string    `toml:"binary"`
	BinarySHA256  string    `toml:"binary_sha256"`
	Size          int64     `toml:"size"`
	InstalledAt   time.Time `toml:"installed_at"`
	InstalledBy   string    `toml:"installed_by,omitempty"`
}

// RecordPath returns the record path for a vendor directory.
func RecordPath(vendorDir string) string {
	return filepath.Join(vendorDir, RecordFileName)
}

// LoadRecord reads the record at path. A missing record yields (nil, nil).
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read install record: %w", err)
	}

	var rec Record
	if _, err := toml.Decode(string(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to parse install record %s: %w", path, err)
	}
	return &rec, nil
}

// Save writes the record to path through a temp file and rename.
func (r *Record) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(r); err != nil {
		return fmt.Errorf("failed to encode install record: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write temp install record: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename install record: %w", err)
	}
	return nil
}

// Matches reports whether the record describes the given project, version
// and platform.
func (r *Record) Matches(project, version, platform string) bool {
	return r != nil && r.Project == project && r.Version == version && r.Platform == platform
}
