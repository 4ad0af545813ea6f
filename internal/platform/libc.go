package platform

import (
	"bytes"
	"debug/elf"
	"path/filepath"
	"runtime"
	"strings"
)

// Libc values reported by DetectLibc.
const (
	LibcGlibc = "glibc"
	LibcMusl  = "musl"
)

// DetectLibc returns the C library of the running linux host, or "" on other
// operating systems. Release binaries for linux are usually linked against
// glibc, so a musl host is worth surfacing in diagnostics.
//
// Detection examines the ELF interpreter of /bin/sh and falls back to
// looking for the musl dynamic linker under /lib.
func DetectLibc() string {
	if runtime.GOOS != OSLinux {
		return ""
	}
	if libc := detectLibcFromBinary("/bin/sh"); libc != "" {
		return libc
	}
	return DetectLibcWithRoot("")
}

// detectLibcFromBinary reads the ELF interpreter from a binary.
// Returns "" when the file is not a dynamically linked ELF executable.
func detectLibcFromBinary(path string) string {
	f, err := elf.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_INTERP {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return ""
		}
		if strings.Contains(string(bytes.TrimRight(data, "\x00")), "musl") {
			return LibcMusl
		}
		return LibcGlibc
	}
	// static binary
	return ""
}

// DetectLibcWithRoot checks for a musl dynamic linker (ld-musl-<arch>.so.1)
// below root. An empty root uses the real filesystem root.
func DetectLibcWithRoot(root string) string {
	matches, _ := filepath.Glob(filepath.Join(root, "lib", "ld-musl-*.so.1"))
	if len(matches) > 0 {
		return LibcMusl
	}
	return LibcGlibc
}
