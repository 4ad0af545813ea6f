// Package errmsg renders errors for the terminal: a single diagnostic line by
// default, and a block of possible causes and suggestions on request.
package errmsg

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/prelaunch-dev/prelaunch/internal/install"
)

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	Project string // project being installed or launched
}

// Line returns err as one line, with embedded newlines collapsed.
func Line(err error) string {
	if err == nil {
		return ""
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(err.Error(), "\n", " ")), " ")
}

// Format returns the error line followed by possible causes and
// suggestions when any are known. The context parameter may be nil.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}

	line := Line(err)

	var installErr *install.Error
	if errors.As(err, &installErr) {
		return formatInstallError(line, installErr, ctx)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetworkError(line, netErr)
	}

	if isNetworkError(line) {
		return formatGenericNetworkError(line)
	}

	if isPermissionError(line) {
		return formatPermissionError(line)
	}

	return line
}

func formatInstallError(line string, err *install.Error, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(line)
	sb.WriteString("\n")

	switch err.Type {
	case install.ErrTypeFetchFailed, install.ErrTypeDownloadFailed:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			writeCauses(&sb, "Request timed out", "Slow or unstable network connection")
		} else {
			writeCauses(&sb,
				"Network connectivity issue",
				"The pinned version was never published",
				"Firewall or proxy blocking the connection")
		}

	case install.ErrTypeChecksumMismatch:
		writeCauses(&sb,
			"The download was truncated or corrupted in transit",
			"A proxy or mirror served a different file",
			"The release asset was replaced after the manifest was published")

	case install.ErrTypeChecksumNotFound, install.ErrTypeBinaryNotInArchive:
		writeCauses(&sb, "The release is incomplete for this platform")

	case install.ErrTypeExtractFailed, install.ErrTypeVendorDir:
		writeCauses(&sb,
			"Insufficient permissions on the package directory",
			"Disk full")
	}

	if suggestion := err.Suggestion(); suggestion != "" {
		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - " + suggestion + "\n")
		if err.Type == install.ErrTypeChecksumMismatch && ctx != nil && ctx.Project != "" {
			sb.WriteString(fmt.Sprintf("  - Run 'prelaunch clean --all' and reinstall %s\n", ctx.Project))
		}
	}

	return sb.String()
}

func writeCauses(sb *strings.Builder, causes ...string) {
	sb.WriteString("\nPossible causes:\n")
	for _, c := range causes {
		sb.WriteString("  - " + c + "\n")
	}
}

func formatNetworkError(line string, err net.Error) string {
	var sb strings.Builder
	sb.WriteString(line)
	sb.WriteString("\n")

	if err.Timeout() {
		writeCauses(&sb, "Request timed out", "Slow or unstable network connection",
			"Firewall or proxy blocking the connection")
	} else {
		writeCauses(&sb, "Network connectivity issue", "DNS resolution failure",
			"Firewall or proxy blocking the connection")
	}

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")
	if err.Timeout() {
		sb.WriteString("  - Raise PRELAUNCH_TIMEOUT if you are behind a slow proxy\n")
	}

	return sb.String()
}

func formatGenericNetworkError(line string) string {
	var sb strings.Builder
	sb.WriteString(line)
	sb.WriteString("\n")

	writeCauses(&sb, "Network connectivity issue", "DNS resolution failure", "Service temporarily unavailable")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")

	return sb.String()
}

func formatPermissionError(line string) string {
	var sb strings.Builder
	sb.WriteString(line)
	sb.WriteString("\n")

	writeCauses(&sb, "Insufficient permissions on the package directory",
		"File or directory owned by a different user")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check permissions on the vendor directory\n")
	sb.WriteString("  - Set PRELAUNCH_ROOT to a writable location\n")

	return sb.String()
}

// isNetworkError checks if the error message indicates a network issue
func isNetworkError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "network is unreachable") ||
		strings.Contains(lower, "dial tcp") ||
		strings.Contains(lower, "i/o timeout")
}

// isPermissionError checks if the error message indicates a permission issue
func isPermissionError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "operation not permitted")
}
