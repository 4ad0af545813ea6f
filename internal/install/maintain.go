package install

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prelaunch-dev/prelaunch/internal/checksum"
	"github.com/prelaunch-dev/prelaunch/internal/lock"
	"github.com/prelaunch-dev/prelaunch/internal/platform"
)

// Status is a snapshot of the vendor directory for the configured release.
type Status struct {
	Target      platform.Target
	ManifestURL string
	ArchiveURL  string
	BinaryPath  string
	Installed   bool
	Size        int64
	Record      *Record // nil when no install record exists
	Current     bool    // record matches the pinned version and platform
	Libc        string
	Locked      bool
	LockHolder  *lock.Metadata // last recorded holder, when locked
}

// Status reports the configured target and what is installed for it.
func (i *Installer) Status() (*Status, error) {
	target, err := i.Target()
	if err != nil {
		return nil, newError(ErrTypeUnsupportedPlatform, i.cfg.Release.Project, "unsupported platform", err)
	}

	st := &Status{
		Target:      target,
		ManifestURL: i.cfg.Release.ManifestURL(),
		ArchiveURL:  i.cfg.Release.AssetURL(target.ArchiveName),
		BinaryPath:  i.BinaryPath(target),
		Libc:        platform.DetectLibc(),
	}

	if info, err := os.Stat(st.BinaryPath); err == nil && info.Mode().IsRegular() {
		st.Installed = true
		st.Size = info.Size()
	}

	rec, err := LoadRecord(RecordPath(i.cfg.VendorDir))
	if err != nil {
		return nil, err
	}
	st.Record = rec
	st.Current = st.Installed && rec.Matches(i.cfg.Release.Project, i.cfg.Release.Version, target.String())

	lockPath := lock.PathFor(i.cfg.VendorDir)
	if lock.IsHeld(lockPath) {
		st.Locked = true
		if md, err := lock.ReadMetadata(lockPath); err == nil {
			st.LockHolder = &md
		}
	}
	return st, nil
}

// Verify recomputes the SHA-256 of the installed binary and compares it with
// the install record. It returns the record on success.
func (i *Installer) Verify(ctx context.Context) (*Record, error) {
	project := i.cfg.Release.Project
	target, err := i.Target()
	if err != nil {
		return nil, newError(ErrTypeUnsupportedPlatform, project, "unsupported platform", err)
	}

	binPath := i.BinaryPath(target)
	if _, err := os.Stat(binPath); err != nil {
		return nil, newError(ErrTypeNotInstalled, project, project+" is not installed", err)
	}

	rec, err := LoadRecord(RecordPath(i.cfg.VendorDir))
	if err != nil {
		return nil, newError(ErrTypeNotInstalled, project, "install record is unreadable", err)
	}
	if rec == nil || rec.BinarySHA256 == "" {
		return nil, newError(ErrTypeNotInstalled, project, "no install record for "+binPath, nil)
	}

	if _, err := checksum.VerifyFile(ctx, binPath, rec.BinarySHA256); err != nil {
		var mismatch *checksum.MismatchError
		if errors.As(err, &mismatch) {
			return rec, newError(ErrTypeChecksumMismatch, project, "installed binary does not match its install record", err)
		}
		return rec, newError(ErrTypeExtractFailed, project, "failed to read installed binary", err)
	}
	return rec, nil
}

// Clean removes the installed binary and its install record. With all set it
// removes the whole vendor directory.
func (i *Installer) Clean(ctx context.Context, all bool) error {
	project := i.cfg.Release.Project
	if _, err := os.Stat(i.cfg.VendorDir); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	lk, err := lock.Acquire(ctx, lock.PathFor(i.cfg.VendorDir), "clean "+project)
	if err != nil {
		return newError(ErrTypeVendorDir, project, "failed to lock vendor directory", err)
	}

	if all {
		// Windows cannot remove a locked file.
		if err := lk.Release(); err != nil {
			i.logger.Warn("failed to release vendor lock", "error", err)
		}
		if err := os.RemoveAll(i.cfg.VendorDir); err != nil {
			return newError(ErrTypeVendorDir, project, "failed to remove vendor directory", err)
		}
		i.logger.Info("removed vendor directory", "path", i.cfg.VendorDir)
		return nil
	}
	defer func() {
		if err := lk.Release(); err != nil {
			i.logger.Warn("failed to release vendor lock", "error", err)
		}
	}()

	target, err := i.Target()
	if err != nil {
		return newError(ErrTypeUnsupportedPlatform, project, "unsupported platform", err)
	}
	for _, path := range []string{i.BinaryPath(target), RecordPath(i.cfg.VendorDir)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return newError(ErrTypeVendorDir, project, fmt.Sprintf("failed to remove %s", path), err)
		}
	}
	i.logger.Info("removed installed binary", "path", i.BinaryPath(target))
	return nil
}
