package install

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType classifies install failures by pipeline stage.
type ErrorType int

const (
	// ErrTypeUnsupportedPlatform indicates the host OS/arch has no release artifact
	ErrTypeUnsupportedPlatform ErrorType = iota
	// ErrTypeFetchFailed indicates the checksum manifest could not be fetched
	ErrTypeFetchFailed
	// ErrTypeTooManyRedirects indicates a fetch exceeded the redirect limit
	ErrTypeTooManyRedirects
	// ErrTypeChecksumNotFound indicates the manifest has no usable entry for the archive
	ErrTypeChecksumNotFound
	// ErrTypeChecksumMismatch indicates the downloaded archive failed verification
	ErrTypeChecksumMismatch
	// ErrTypeDownloadFailed indicates the archive could not be downloaded
	ErrTypeDownloadFailed
	// ErrTypeExtractFailed indicates the archive could not be extracted
	ErrTypeExtractFailed
	// ErrTypeBinaryNotInArchive indicates the archive lacks the expected binary
	ErrTypeBinaryNotInArchive
	// ErrTypeCleanupFailed indicates the temporary directory could not be removed.
	// It is logged, never returned from Install.
	ErrTypeCleanupFailed
	// ErrTypeCanceled indicates the context was canceled or its deadline passed
	ErrTypeCanceled
	// ErrTypeVendorDir indicates the vendor directory or its lock is unusable
	ErrTypeVendorDir
	// ErrTypeNotInstalled indicates no installed binary was found
	ErrTypeNotInstalled
)

var errorTypeNames = []string{
	"unsupported platform",
	"fetch failed",
	"too many redirects",
	"checksum not found",
	"checksum mismatch",
	"download failed",
	"extract failed",
	"binary not in archive",
	"cleanup failed",
	"canceled",
	"vendor directory unavailable",
	"not installed",
}

func (t ErrorType) String() string {
	if int(t) < 0 || int(t) >= len(errorTypeNames) {
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
	return errorTypeNames[t]
}

// Error is a failed install step.
type Error struct {
	Type    ErrorType
	Project string // project being installed
	Message string // human-readable error message
	Err     error  // underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain support
func (e *Error) Unwrap() error {
	return e.Err
}

// Suggestion returns an actionable hint for the error type, or "" when
// there is none.
func (e *Error) Suggestion() string {
	switch e.Type {
	case ErrTypeUnsupportedPlatform:
		return fmt.Sprintf("%s publishes no build for this platform. Build it from source or run it on a supported system", e.projectName())
	case ErrTypeFetchFailed, ErrTypeDownloadFailed:
		return "Check your internet connection and proxy settings (HTTPS_PROXY), then try again"
	case ErrTypeTooManyRedirects:
		return "The release host redirected too many times. Check base_url or your proxy configuration"
	case ErrTypeChecksumNotFound:
		return "The release may be incomplete. Check that the pinned version was published for this platform"
	case ErrTypeChecksumMismatch:
		return "The download was corrupted or tampered with. Try again, and report it if the problem persists"
	case ErrTypeExtractFailed:
		return "Check free disk space and write permissions on the vendor directory"
	case ErrTypeBinaryNotInArchive:
		return fmt.Sprintf("The release archive does not contain the %s binary. Report this to the project maintainers", e.projectName())
	case ErrTypeCanceled:
		return "The operation timed out or was interrupted. Raise PRELAUNCH_TIMEOUT on slow networks"
	case ErrTypeVendorDir:
		return "Check write permissions on the package directory, or set PRELAUNCH_ROOT"
	case ErrTypeNotInstalled:
		return "Run 'prelaunch install' first"
	default:
		return ""
	}
}

func (e *Error) projectName() string {
	if e.Project == "" {
		return "the project"
	}
	return e.Project
}

// newError builds an install error for a stage. Context cancellation
// overrides the stage type so callers can tell interruption from failure.
func newError(t ErrorType, project, message string, err error) *Error {
	if isCanceled(err) {
		t = ErrTypeCanceled
	}
	return &Error{Type: t, Project: project, Message: message, Err: err}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// TypeOf returns the ErrorType of the first *Error in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Type, true
	}
	return 0, false
}
