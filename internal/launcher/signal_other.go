//go:build !unix

package launcher

import "os"

var forwardedSignals = []os.Signal{os.Interrupt}

func exitCode(state *os.ProcessState) int {
	if code := state.ExitCode(); code >= 0 {
		return code
	}
	return ExitFailure
}
