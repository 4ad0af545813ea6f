// Package install runs the download, verify and extract pipeline that puts a
// pinned release binary into the vendor directory.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prelaunch-dev/prelaunch/internal/archive"
	"github.com/prelaunch-dev/prelaunch/internal/buildinfo"
	"github.com/prelaunch-dev/prelaunch/internal/checksum"
	"github.com/prelaunch-dev/prelaunch/internal/config"
	"github.com/prelaunch-dev/prelaunch/internal/httputil"
	"github.com/prelaunch-dev/prelaunch/internal/lock"
	"github.com/prelaunch-dev/prelaunch/internal/log"
	"github.com/prelaunch-dev/prelaunch/internal/platform"
)

// Result describes a completed install.
type Result struct {
	Target       platform.Target
	BinaryPath   string
	Digest       string // verified archive digest
	BinarySHA256 string
	Bytes        int64 // archive size
}

// Installer installs one configured release into the vendor directory.
// An Installer runs one pipeline at a time and is not safe for concurrent use.
type Installer struct {
	cfg         *config.Config
	format      archive.Format
	retriever   *httputil.Retriever
	logger      log.Logger
	observer    Observer
	progressOut io.Writer
	goos        string
	goarch      string
	tempRoot    string
	now         func() time.Time

	state State
}

// Option configures an Installer.
type Option func(*Installer)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(i *Installer) {
		i.logger = logger
	}
}

// WithRetriever replaces the default HTTP retriever.
func WithRetriever(r *httputil.Retriever) Option {
	return func(i *Installer) {
		i.retriever = r
	}
}

// WithObserver registers a callback for state transitions.
func WithObserver(o Observer) Option {
	return func(i *Installer) {
		i.observer = o
	}
}

// WithProgress draws a download progress bar on w. Ignored when a retriever
// is supplied with WithRetriever.
func WithProgress(w io.Writer) Option {
	return func(i *Installer) {
		i.progressOut = w
	}
}

// WithPlatform overrides the host OS and architecture.
func WithPlatform(goos, goarch string) Option {
	return func(i *Installer) {
		i.goos = goos
		i.goarch = goarch
	}
}

// WithTempDir sets the parent of the per-run temporary directory.
func WithTempDir(dir string) Option {
	return func(i *Installer) {
		i.tempRoot = dir
	}
}

// New returns an Installer for cfg.
func New(cfg *config.Config, opts ...Option) (*Installer, error) {
	format, err := archive.ParseFormat(cfg.ArchiveFormat)
	if err != nil {
		return nil, err
	}

	i := &Installer{
		cfg:    cfg,
		format: format,
		logger: log.NewNoop(),
		goos:   runtime.GOOS,
		goarch: runtime.GOARCH,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With("project", cfg.Release.Project)

	if i.retriever == nil {
		i.retriever = httputil.NewRetriever(
			httputil.WithAllowInsecure(cfg.AllowInsecure),
			httputil.WithUserAgent(buildinfo.UserAgent()),
			httputil.WithProgress(i.progressOut),
			httputil.WithLogger(i.logger),
		)
	}
	return i, nil
}

// Target resolves the release artifact for the configured host platform.
func (i *Installer) Target() (platform.Target, error) {
	return platform.ResolveWithExt(i.goos, i.goarch, i.cfg.Release.Project, i.format.Ext())
}

// BinaryPath returns where the binary for target is installed.
func (i *Installer) BinaryPath(target platform.Target) string {
	return filepath.Join(i.cfg.VendorDir, target.BinaryName)
}

// Install downloads, verifies and extracts the configured release. It always
// installs, replacing any existing binary atomically.
func (i *Installer) Install(ctx context.Context) (res *Result, err error) {
	if i.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.Timeout)
		defer cancel()
	}

	i.state = StateIdle
	i.transition(StateResolvingPlatform, i.goos+"/"+i.goarch)
	defer func() {
		if err != nil {
			i.transition(StateFailed, err.Error())
			return
		}
		i.transition(StateDone, res.BinaryPath)
	}()

	project := i.cfg.Release.Project
	target, err := i.Target()
	if err != nil {
		return nil, newError(ErrTypeUnsupportedPlatform, project, "unsupported platform", err)
	}
	i.logger.Debug("resolved target", "target", target.String(), "archive", target.ArchiveName)

	expected, err := i.lookupChecksum(ctx, target)
	if err != nil {
		return nil, err
	}

	if err := i.cfg.EnsureVendorDir(); err != nil {
		return nil, newError(ErrTypeVendorDir, project, "failed to create vendor directory", err)
	}

	tmpDir, err := os.MkdirTemp(i.tempRoot, "prelaunch-*")
	if err != nil {
		return nil, newError(ErrTypeDownloadFailed, project, "failed to create temporary directory", err)
	}
	defer i.cleanup(tmpDir)

	return i.installLocked(ctx, target, expected, tmpDir)
}

// lookupChecksum fetches the manifest and returns the archive's digest.
func (i *Installer) lookupChecksum(ctx context.Context, target platform.Target) (string, error) {
	project := i.cfg.Release.Project
	manifestURL := i.cfg.Release.ManifestURL()

	i.transition(StateFetchingManifest, log.SanitizeURL(manifestURL))
	text, err := i.retriever.FetchText(ctx, manifestURL)
	if err != nil {
		return "", newError(fetchErrorType(err, ErrTypeFetchFailed), project, "failed to fetch checksum manifest", err)
	}

	i.transition(StateLookingUpChecksum, target.ArchiveName)
	manifest := checksum.ParseManifest(text)
	expected, ok := manifest.Lookup(target.ArchiveName)
	if !ok {
		return "", newError(ErrTypeChecksumNotFound, project,
			fmt.Sprintf("no checksum for %s in %s", target.ArchiveName, i.cfg.Release.ManifestName()), nil)
	}
	if _, err := checksum.AlgorithmFor(expected); err != nil {
		return "", newError(ErrTypeChecksumNotFound, project,
			fmt.Sprintf("invalid checksum for %s in %s", target.ArchiveName, i.cfg.Release.ManifestName()), err)
	}
	i.logger.Debug("found checksum", "archive", target.ArchiveName, "entries", manifest.Len())
	return expected, nil
}

// installLocked runs download, verify and extract while holding the vendor
// directory lock.
func (i *Installer) installLocked(ctx context.Context, target platform.Target, expected, tmpDir string) (*Result, error) {
	project := i.cfg.Release.Project

	lk, err := lock.Acquire(ctx, lock.PathFor(i.cfg.VendorDir), "install "+project+" "+i.cfg.Release.Version)
	if err != nil {
		return nil, newError(ErrTypeVendorDir, project, "failed to lock vendor directory", err)
	}
	defer func() {
		if err := lk.Release(); err != nil {
			i.logger.Warn("failed to release vendor lock", "error", err)
		}
	}()

	archiveURL := i.cfg.Release.AssetURL(target.ArchiveName)
	archivePath := filepath.Join(tmpDir, target.ArchiveName)

	i.transition(StateDownloading, log.SanitizeURL(archiveURL))
	n, err := i.retriever.FetchFile(ctx, archiveURL, archivePath)
	if err != nil {
		return nil, newError(fetchErrorType(err, ErrTypeDownloadFailed), project, "failed to download "+target.ArchiveName, err)
	}
	i.logger.Info("downloaded archive", "archive", target.ArchiveName, "bytes", n)

	i.transition(StateVerifying, target.ArchiveName)
	digest, err := checksum.VerifyFile(ctx, archivePath, expected)
	if err != nil {
		var mismatch *checksum.MismatchError
		if errors.As(err, &mismatch) {
			return nil, newError(ErrTypeChecksumMismatch, project, "checksum mismatch for "+target.ArchiveName, err)
		}
		return nil, newError(ErrTypeDownloadFailed, project, "failed to verify "+target.ArchiveName, err)
	}

	i.transition(StateExtracting, target.BinaryName)
	binPath, err := archive.ExtractEntry(ctx, archivePath, i.format, target.BinaryName, i.cfg.VendorDir)
	if err != nil {
		if errors.Is(err, archive.ErrEntryNotFound) {
			return nil, newError(ErrTypeBinaryNotInArchive, project,
				fmt.Sprintf("%s not found in %s", target.BinaryName, target.ArchiveName), err)
		}
		return nil, newError(ErrTypeExtractFailed, project, "failed to extract "+target.BinaryName, err)
	}

	res := &Result{Target: target, BinaryPath: binPath, Digest: digest, Bytes: n}
	if err := i.writeRecord(ctx, res); err != nil {
		i.logger.Warn("failed to write install record", "error", err)
	}
	return res, nil
}

func (i *Installer) writeRecord(ctx context.Context, res *Result) error {
	binDigest, err := checksum.ComputeSHA256(ctx, res.BinaryPath)
	if err != nil {
		return err
	}
	res.BinarySHA256 = binDigest

	info, err := os.Stat(res.BinaryPath)
	if err != nil {
		return err
	}

	rec := &Record{
		Project:       i.cfg.Release.Project,
		Version:       i.cfg.Release.Version,
		Platform:      res.Target.String(),
		Archive:       res.Target.ArchiveName,
		ArchiveDigest: res.Digest,
		Binary:        res.Target.BinaryName,
		BinarySHA256:  binDigest,
		Size:          info.Size(),
		InstalledAt:   i.now().UTC().Truncate(time.Second),
		InstalledBy:   buildinfo.Version(),
	}
	return rec.Save(RecordPath(i.cfg.VendorDir))
}

// cleanup removes the per-run temporary directory. Failure is logged only.
func (i *Installer) cleanup(tmpDir string) {
	i.transition(StateCleaningUp, tmpDir)
	if err := os.RemoveAll(tmpDir); err != nil {
		cerr := newError(ErrTypeCleanupFailed, i.cfg.Release.Project, "failed to remove temporary directory "+tmpDir, err)
		i.logger.Warn("cleanup failed", "error", cerr)
	}
}

// EnsureInstalled returns the installed binary path, installing first when the
// binary is missing or the install record names another version or platform.
func (i *Installer) EnsureInstalled(ctx context.Context) (string, error) {
	target, err := i.Target()
	if err != nil {
		return "", newError(ErrTypeUnsupportedPlatform, i.cfg.Release.Project, "unsupported platform", err)
	}

	binPath := i.BinaryPath(target)
	if i.isCurrent(target, binPath) {
		i.logger.Debug("binary already installed", "path", binPath)
		return binPath, nil
	}

	res, err := i.Install(ctx)
	if err != nil {
		return "", err
	}
	return res.BinaryPath, nil
}

func (i *Installer) isCurrent(target platform.Target, binPath string) bool {
	info, err := os.Stat(binPath)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	rec, err := LoadRecord(RecordPath(i.cfg.VendorDir))
	if err != nil {
		i.logger.Warn("ignoring unreadable install record", "error", err)
		return false
	}
	if rec == nil {
		return false
	}
	return rec.Matches(i.cfg.Release.Project, i.cfg.Release.Version, target.String())
}

func (i *Installer) transition(to State, detail string) {
	if i.state.Terminal() {
		return
	}
	from := i.state
	i.state = to
	i.logger.Debug("install state", "from", from.String(), "to", to.String(), "detail", detail)
	if i.observer != nil {
		i.observer(Transition{From: from, To: to, Detail: detail})
	}
}

// fetchErrorType maps a retriever error to an ErrorType, defaulting to def.
func fetchErrorType(err error, def ErrorType) ErrorType {
	if errors.Is(err, httputil.ErrTooManyRedirects) {
		return ErrTypeTooManyRedirects
	}
	return def
}
