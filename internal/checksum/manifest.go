// Package checksum parses release checksum manifests and verifies files
// against the digests they list.
package checksum

import (
	"strings"
)

// Entry is one "digest filename" line of a manifest.
type Entry struct {
	Digest   string // lowercase hex
	Filename string
}

// Manifest is the ordered list of entries parsed from a checksum manifest
// in the format written by sha256sum and goreleaser:
//
//	<hex digest>  <filename>
//
// Blank lines, lines starting with '#' and lines that do not split into
// exactly two fields are ignored.
type Manifest struct {
	entries []Entry
}

// ParseManifest parses manifest text. It never fails; unparseable lines
// are skipped.
func ParseManifest(text string) *Manifest {
	m := &Manifest{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}

		// sha256sum -b marks binary mode with a leading '*'.
		name := strings.TrimPrefix(fields[1], "*")
		if name == "" {
			continue
		}

		m.entries = append(m.entries, Entry{
			Digest:   strings.ToLower(fields[0]),
			Filename: name,
		})
	}
	return m
}

// Lookup returns the digest listed for filename. When a file is listed more
// than once, the first entry wins.
func (m *Manifest) Lookup(filename string) (string, bool) {
	for _, e := range m.entries {
		if e.Filename == filename {
			return e.Digest, true
		}
	}
	return "", false
}

// Len returns the number of parsed entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}
