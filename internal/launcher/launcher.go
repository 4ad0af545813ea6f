// Package launcher runs the installed binary in place of the launcher
// process: arguments pass through verbatim, stdio is inherited and the
// child's exit code becomes the launcher's.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/prelaunch-dev/prelaunch/internal/log"
)

// ExitFailure is returned when the binary could not be started.
const ExitFailure = 1

// killDelay is how long a canceled child gets to exit after the interrupt.
const killDelay = 5 * time.Second

// SpawnError reports a binary that could not be executed.
type SpawnError struct {
	Project string
	Path    string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to execute %s binary: %v", e.Project, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Command describes one launch. Nil stdio fields inherit the launcher's.
type Command struct {
	Project string
	Path    string
	Args    []string
	Env     []string // nil inherits the environment

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts the binary, forwards interrupt signals to it and waits for it to
// exit. It returns the child's exit code. A non-nil error is always a
// *SpawnError and comes with ExitFailure.
func Run(ctx context.Context, c Command, logger log.Logger) (int, error) {
	if logger == nil {
		logger = log.NewNoop()
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Env = c.Env
	cmd.Stdin = orDefault(c.Stdin, os.Stdin)
	cmd.Stdout = orDefaultWriter(c.Stdout, os.Stdout)
	cmd.Stderr = orDefaultWriter(c.Stderr, os.Stderr)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = killDelay

	// The terminal delivers interrupts to the whole foreground process
	// group; the launcher only relays them and waits for the child.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, forwardedSignals...)
	defer signal.Stop(sigs)

	logger.Debug("launching binary", "path", c.Path, "args", len(c.Args))
	if err := cmd.Start(); err != nil {
		return ExitFailure, &SpawnError{Project: c.Project, Path: c.Path, Err: err}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case sig := <-sigs:
				logger.Debug("forwarding signal", "signal", sig.String())
				_ = cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitCode(exitErr.ProcessState)
		logger.Debug("binary exited", "code", code)
		return code, nil
	}
	return ExitFailure, &SpawnError{Project: c.Project, Path: c.Path, Err: err}
}

func orDefault(r io.Reader, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orDefaultWriter(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
