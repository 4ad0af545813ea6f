package install

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	base := errors.New("connection refused")
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"with cause", &Error{Type: ErrTypeFetchFailed, Message: "failed to fetch checksum manifest", Err: base},
			"failed to fetch checksum manifest: connection refused"},
		{"without cause", &Error{Type: ErrTypeChecksumNotFound, Message: "no checksum for a.tar.gz"},
			"no checksum for a.tar.gz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("outer: %w", &Error{Type: ErrTypeExtractFailed, Err: base})
	if !errors.Is(err, base) {
		t.Error("errors.Is should reach the underlying error")
	}
	typ, ok := TypeOf(err)
	if !ok || typ != ErrTypeExtractFailed {
		t.Errorf("TypeOf() = %v, %v", typ, ok)
	}
	if _, ok := TypeOf(base); ok {
		t.Error("TypeOf() on a plain error should report false")
	}
}

func TestError_Suggestion(t *testing.T) {
	for typ := ErrTypeUnsupportedPlatform; typ <= ErrTypeNotInstalled; typ++ {
		e := &Error{Type: typ, Project: "mytool"}
		got := e.Suggestion()
		if typ == ErrTypeCleanupFailed {
			if got != "" {
				t.Errorf("%v: Suggestion() = %q, want empty", typ, got)
			}
			continue
		}
		if got == "" {
			t.Errorf("%v: Suggestion() is empty", typ)
		}
	}

	e := &Error{Type: ErrTypeBinaryNotInArchive}
	if got := e.Suggestion(); got == "" || !strings.Contains(got, "the project") {
		t.Errorf("Suggestion() without project = %q", got)
	}
}

func TestNewError_Canceled(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"canceled", context.Canceled, ErrTypeCanceled},
		{"deadline", fmt.Errorf("waiting: %w", context.DeadlineExceeded), ErrTypeCanceled},
		{"other", errors.New("x"), ErrTypeDownloadFailed},
		{"nil", nil, ErrTypeDownloadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := newError(ErrTypeDownloadFailed, "p", "m", tt.err).Type; got != tt.want {
				t.Errorf("Type = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorType_String(t *testing.T) {
	if got := ErrTypeChecksumMismatch.String(); got != "checksum mismatch" {
		t.Errorf("String() = %q", got)
	}
	if got := ErrorType(99).String(); got != "ErrorType(99)" {
		t.Errorf("String() = %q", got)
	}
}

func TestState_String(t *testing.T) {
	if StateDownloading.String() != "downloading" {
		t.Errorf("String() = %q", StateDownloading.String())
	}
	if !StateDone.Terminal() || !StateFailed.Terminal() || StateExtracting.Terminal() {
		t.Error("Terminal() wrong")
	}
	if State(-1).String() != "State(-1)" {
		t.Errorf("String() = %q", State(-1).String())
	}
}
