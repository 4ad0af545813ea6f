package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

const spinnerInterval = 100 * time.Millisecond

// Spinner shows an animated status line while a pipeline stage runs.
// On a non-TTY output each message is printed once on its own line.
type Spinner struct {
	mu      sync.Mutex
	output  io.Writer
	message string
	isTTY   bool
	running bool
	done    chan struct{}
	exited  chan struct{}
}

// NewSpinner returns a spinner drawing on output (os.Stderr when nil).
func NewSpinner(output io.Writer) *Spinner {
	if output == nil {
		output = os.Stderr
	}
	return &Spinner{
		output: output,
		isTTY:  ShouldShow(os.Stderr),
	}
}

// Start shows message. Calling Start on a running spinner only replaces the
// message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = message
	if !s.isTTY {
		fmt.Fprintln(s.output, message)
		return
	}
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})
	s.exited = make(chan struct{})
	go s.animate(s.done, s.exited)
}

// Stop halts the animation and clears the line. It is safe to call Stop on a
// spinner that is not running.
func (s *Spinner) Stop() {
	s.StopWithMessage("")
}

// StopWithMessage halts the animation and prints a final line. An empty
// message only clears the line.
func (s *Spinner) StopWithMessage(message string) {
	s.mu.Lock()
	running := s.running
	s.running = false
	done, exited := s.done, s.exited
	s.mu.Unlock()

	if running {
		close(done)
		<-exited
		fmt.Fprintf(s.output, "\r%s\r", strings.Repeat(" ", lineWidth))
	}
	if message != "" {
		fmt.Fprintln(s.output, message)
	}
}

func (s *Spinner) animate(done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			line := fmt.Sprintf("\r%s %s", spinnerFrames[frame%len(spinnerFrames)], s.message)
			s.mu.Unlock()
			if len(line) < lineWidth {
				line += strings.Repeat(" ", lineWidth-len(line))
			}
			fmt.Fprint(s.output, line)
		}
	}
}
