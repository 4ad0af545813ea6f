package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/prelaunch-dev/prelaunch/internal/config"
	"github.com/prelaunch-dev/prelaunch/internal/errmsg"
	"github.com/prelaunch-dev/prelaunch/internal/install"
	"github.com/prelaunch-dev/prelaunch/internal/log"
	"github.com/prelaunch-dev/prelaunch/internal/progress"
)

// printInfof prints a formatted informational message unless quiet mode is enabled
func printInfof(format string, a ...interface{}) {
	if !quietFlag {
		fmt.Printf(format, a...)
	}
}

// printJSON marshals the given value to JSON and prints it to stdout
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		exitWithCode(ExitGeneral)
	}
}

// printError prints err to stderr as a single line, followed by possible
// causes and suggestions in verbose mode.
func printError(err error, ctx *errmsg.ErrorContext) {
	if verboseFlag || debugFlag {
		fmt.Fprint(os.Stderr, errmsg.Format(err, ctx))
		return
	}
	fmt.Fprintln(os.Stderr, errmsg.Line(err))
}

func printUsageError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", errmsg.Line(err))
	fmt.Fprintln(os.Stderr, "Run 'prelaunch --help' for usage.")
}

// failInstall reports a failed install as "<project> install failed: <msg>"
// and exits.
func failInstall(project string, err error) {
	printError(fmt.Errorf("%s install failed: %w", project, err), &errmsg.ErrorContext{Project: project})
	exitWithCode(ExitGeneral)
}

// loadConfig resolves the configuration or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		printError(fmt.Errorf("failed to load configuration: %w", err), nil)
		exitWithCode(ExitGeneral)
	}
	return cfg
}

// newInstaller builds an installer that reports progress on stderr.
func newInstaller(cfg *config.Config) *install.Installer {
	opts := []install.Option{install.WithLogger(log.Default())}
	if !quietFlag {
		reporter := newStageReporter()
		opts = append(opts, install.WithObserver(reporter.observe))
		if progress.ShouldShow(os.Stderr) {
			opts = append(opts, install.WithProgress(os.Stderr))
		}
	}

	inst, err := install.New(cfg, opts...)
	if err != nil {
		printError(fmt.Errorf("invalid configuration: %w", err), nil)
		exitWithCode(ExitGeneral)
	}
	return inst
}

// stageReporter prints one line per pipeline stage. On a terminal the
// manifest lookup shows a spinner.
type stageReporter struct {
	spinner *progress.Spinner
	active  bool
}

func newStageReporter() *stageReporter {
	return &stageReporter{spinner: progress.NewSpinner(os.Stderr)}
}

func (r *stageReporter) observe(tr install.Transition) {
	if r.active {
		r.spinner.Stop()
		r.active = false
	}

	switch tr.To {
	case install.StateFetchingManifest:
		r.spinner.Start("Fetching checksum manifest")
		r.active = true
	case install.StateDownloading:
		fmt.Fprintf(os.Stderr, "Downloading %s\n", tr.Detail)
	case install.StateVerifying:
		fmt.Fprintf(os.Stderr, "Verifying %s\n", tr.Detail)
	case install.StateExtracting:
		fmt.Fprintf(os.Stderr, "Extracting %s\n", tr.Detail)
	}
}
