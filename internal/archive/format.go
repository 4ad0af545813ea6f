// Package archive extracts a single named file from a release archive.
package archive

import (
	"fmt"
	"strings"
)

// Format identifies an archive container and compression.
type Format string

const (
	FormatTarGz  Format = "tar.gz"
	FormatTarXz  Format = "tar.xz"
	FormatTarZst Format = "tar.zst"
	FormatTarLz  Format = "tar.lz"
	FormatTarBz2 Format = "tar.bz2"
	FormatTar    Format = "tar"
	FormatZip    Format = "zip"
)

var formatAliases = map[string]Format{
	"tar.gz":  FormatTarGz,
	"tgz":     FormatTarGz,
	"tar.xz":  FormatTarXz,
	"txz":     FormatTarXz,
	"tar.zst": FormatTarZst,
	"tzst":    FormatTarZst,
	"tar.lz":  FormatTarLz,
	"tlz":     FormatTarLz,
	"tar.bz2": FormatTarBz2,
	"tbz2":    FormatTarBz2,
	"tbz":     FormatTarBz2,
	"tar":     FormatTar,
	"zip":     FormatZip,
}

// ParseFormat accepts a format name or one of its short aliases
// ("tgz", "txz", "tzst", "tlz", "tbz2", "tbz"). A leading dot is ignored.
func ParseFormat(s string) (Format, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unsupported archive format: %q", s)
}

// Ext returns the file name extension for the format, without a leading dot.
func (f Format) Ext() string {
	return string(f)
}
