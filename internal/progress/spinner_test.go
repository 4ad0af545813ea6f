package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// syncBuffer guards a bytes.Buffer shared with the animation goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func withTerminal(t *testing.T, tty bool) {
	t.Helper()
	orig := IsTerminalFunc
	IsTerminalFunc = func(int) bool { return tty }
	t.Cleanup(func() { IsTerminalFunc = orig })
}

func TestSpinner_NonTTY(t *testing.T) {
	withTerminal(t, false)
	var out syncBuffer

	s := NewSpinner(&out)
	s.Start("Fetching checksum manifest...")
	s.Start("Downloading myproj_linux_amd64.tar.gz...")
	s.StopWithMessage("Installed myproj 1.0.0")

	require.Equal(t,
		"Fetching checksum manifest...\nDownloading myproj_linux_amd64.tar.gz...\nInstalled myproj 1.0.0\n",
		out.String())
}

func TestSpinner_TTY(t *testing.T) {
	withTerminal(t, true)
	var out syncBuffer

	s := NewSpinner(&out)
	s.Start("Verifying")
	time.Sleep(3 * spinnerInterval)
	s.StopWithMessage("done")

	got := out.String()
	require.Contains(t, got, "Verifying")
	require.True(t, strings.HasSuffix(got, "\rdone\n"), "got %q", got)
}

func TestSpinner_StopIdempotent(t *testing.T) {
	withTerminal(t, true)
	var out syncBuffer

	s := NewSpinner(&out)
	s.Stop()
	s.Start("working")
	s.Stop()
	s.Stop()
}

func TestSpinner_NilOutput(t *testing.T) {
	withTerminal(t, false)
	s := NewSpinner(nil)
	require.NotNil(t, s.output)
}
