// Package progress renders download progress and activity spinners on a
// terminal. Nothing is animated when the output is not a TTY.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// IsTerminalFunc reports whether a file descriptor is a terminal.
// Tests override it.
var IsTerminalFunc = term.IsTerminal

const (
	lineWidth     = 80
	barWidth      = 30
	printInterval = 100 * time.Millisecond
)

// Writer passes writes through to an underlying writer and renders a
// progress line on output as bytes arrive.
type Writer struct {
	mu        sync.Mutex
	dst       io.Writer
	output    io.Writer
	label     string
	total     int64
	written   int64
	startTime time.Time
	lastPrint time.Time
	now       func() time.Time
}

// NewWriter returns a Writer copying into dst and drawing on output.
// A total <= 0 means the size is unknown and no percentage is shown.
func NewWriter(dst io.Writer, total int64, output io.Writer) *Writer {
	return &Writer{
		dst:       dst,
		output:    output,
		total:     total,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// WithLabel sets a short prefix such as the archive name.
func (w *Writer) WithLabel(label string) *Writer {
	w.label = label
	return w
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	if n > 0 {
		w.mu.Lock()
		w.written += int64(n)
		w.render(false)
		w.mu.Unlock()
	}
	return n, err
}

// Written returns the number of bytes passed through so far.
func (w *Writer) Written() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Finish clears the progress line.
func (w *Writer) Finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.output, "\r%s\r", strings.Repeat(" ", lineWidth))
}

func (w *Writer) render(force bool) {
	now := w.now()
	if !force && now.Sub(w.lastPrint) < printInterval {
		return
	}
	w.lastPrint = now

	elapsed := now.Sub(w.startTime).Seconds()
	if elapsed <= 0 {
		elapsed = printInterval.Seconds()
	}
	rate := uint64(float64(w.written) / elapsed)

	prefix := "  "
	if w.label != "" {
		prefix = "  " + w.label + " "
	}

	var line string
	if w.total > 0 {
		ratio := float64(w.written) / float64(w.total)
		if ratio > 1 {
			ratio = 1
		}
		eta := "--:--"
		if rate > 0 {
			eta = formatDuration(float64(w.total-w.written) / float64(rate))
		}
		line = fmt.Sprintf("\r%s[%s] %3.0f%% (%s/%s) %s/s ETA %s",
			prefix, bar(ratio), ratio*100,
			humanize.IBytes(uint64(w.written)), humanize.IBytes(uint64(w.total)),
			humanize.IBytes(rate), eta)
	} else {
		line = fmt.Sprintf("\r%s%s (%s/s)", prefix,
			humanize.IBytes(uint64(w.written)), humanize.IBytes(rate))
	}

	if len(line) < lineWidth {
		line += strings.Repeat(" ", lineWidth-len(line))
	}
	_, _ = fmt.Fprint(w.output, line)
}

func bar(ratio float64) string {
	filled := int(ratio * barWidth)
	if filled >= barWidth {
		return strings.Repeat("=", barWidth)
	}
	return strings.Repeat("=", filled) + ">" + strings.Repeat(" ", barWidth-filled-1)
}

// formatDuration formats seconds as M:SS or H:MM:SS.
func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// ShouldShow reports whether progress should be drawn on f.
func ShouldShow(f *os.File) bool {
	if f == nil {
		return false
	}
	return IsTerminalFunc(int(f.Fd()))
}
