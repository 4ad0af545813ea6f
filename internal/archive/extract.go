package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/compress/zstd"
	lzip "github.com/sorairolake/lzip-go"
	"github.com/ulikunitz/xz"
)

// MaxEntrySize bounds the size of the extracted entry (2 GiB).
const MaxEntrySize int64 = 2 << 30

// ErrEntryNotFound is returned when the archive holds no regular file with
// the requested name.
var ErrEntryNotFound = errors.New("entry not found in archive")

// ExtractEntry extracts the regular file named entryName from the archive
// at archivePath into destDir and returns the path written. All other
// entries are skipped. A leading "./" on entry names is ignored.
//
// The file is written to a temporary name inside destDir and renamed into
// place, so an existing file at the destination is replaced atomically.
// Permission bits from the archive are kept (ignored on windows).
func ExtractEntry(ctx context.Context, archivePath string, format Format, entryName, destDir string) (string, error) {
	if entryName == "" || entryName == "." || entryName == ".." || entryName != filepath.Base(entryName) ||
		strings.ContainsAny(entryName, `/\`) {
		return "", fmt.Errorf("invalid entry name %q", entryName)
	}

	if format == FormatZip {
		return extractZipEntry(ctx, archivePath, entryName, destDir)
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	r, closeFn, err := decompressor(format, file)
	if err != nil {
		return "", err
	}
	defer closeFn()

	return extractTarEntry(ctx, tar.NewReader(r), entryName, destDir)
}

// decompressor wraps r in the reader for format's compression layer.
func decompressor(format Format, r io.Reader) (io.Reader, func(), error) {
	noop := func() {}
	switch format {
	case FormatTarGz:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzr, func() { _ = gzr.Close() }, nil
	case FormatTarXz:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzr, noop, nil
	case FormatTarZst:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return zr, zr.Close, nil
	case FormatTarLz:
		lr, err := lzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create lzip reader: %w", err)
		}
		return lr, noop, nil
	case FormatTarBz2:
		return bzip2.NewReader(r), noop, nil
	case FormatTar:
		return r, noop, nil
	default:
		return nil, nil, fmt.Errorf("unsupported archive format: %q", string(format))
	}
}

func extractTarEntry(ctx context.Context, tr *tar.Reader, entryName, destDir string) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		header, err := tr.Next()
		if err == io.EOF {
			return "", fmt.Errorf("%w: %s", ErrEntryNotFound, entryName)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read tar header: %w", err)
		}

		if strings.TrimPrefix(header.Name, "./") != entryName || !header.FileInfo().Mode().IsRegular() {
			continue
		}
		if header.Size > MaxEntrySize {
			return "", fmt.Errorf("archive entry %s is too large (%d bytes)", entryName, header.Size)
		}

		return writeAtomic(ctx, tr, destDir, entryName, header.FileInfo().Mode().Perm())
	}
}

func extractZipEntry(ctx context.Context, archivePath, entryName, destDir string) (string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open zip: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if strings.TrimPrefix(f.Name, "./") != entryName || !f.Mode().IsRegular() {
			continue
		}
		if f.UncompressedSize64 > uint64(MaxEntrySize) {
			return "", fmt.Errorf("archive entry %s is too large (%d bytes)", entryName, f.UncompressedSize64)
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open file in zip: %w", err)
		}
		defer rc.Close()

		perm := f.Mode().Perm()
		if perm == 0 {
			// zips made on windows carry no unix mode
			perm = 0755
		}
		return writeAtomic(ctx, rc, destDir, entryName, perm)
	}

	return "", fmt.Errorf("%w: %s", ErrEntryNotFound, entryName)
}

// writeAtomic copies r into destDir/name through a temporary file in the
// same directory. The temporary file is removed on any failure.
func writeAtomic(ctx context.Context, r io.Reader, destDir, name string, perm fs.FileMode) (path string, err error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(destDir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(&ctxReader{ctx: ctx, r: r}, MaxEntrySize+1))
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if n > MaxEntrySize {
		return "", fmt.Errorf("archive entry %s exceeds %d bytes", name, MaxEntrySize)
	}

	if runtime.GOOS != "windows" {
		if perm == 0 {
			perm = 0644
		}
		if err = tmp.Chmod(perm); err != nil {
			return "", fmt.Errorf("failed to set permissions: %w", err)
		}
	}
	if err = tmp.Sync(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	final := filepath.Join(destDir, name)
	if err = os.Rename(tmpPath, final); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}
	return final, nil
}

// ctxReader fails reads once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
