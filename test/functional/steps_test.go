package functional

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// releaseScript is the fake binary shipped in test archives. It echoes its
// arguments and exits with the code given as "exit N".
const releaseScript = `#!/bin/sh
if [ "$1" = "exit" ]; then
  exit "$2"
fi
echo "%s $*"
`

func (s *testState) archiveName() string {
	return fmt.Sprintf("%s_%s_%s.tar.gz", s.project, runtime.GOOS, runtime.GOARCH)
}

func (s *testState) manifestPath() string {
	return fmt.Sprintf("/dl/%s_%s_checksums.txt", s.project, s.version)
}

func buildArchive(entryName, body string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	hdr := &tar.Header{Name: entryName, Mode: 0o755, Size: int64(len(body)), Typeflag: tar.TypeReg}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, err
	}
	if _, err := tw.Write([]byte(body)); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *testState) publishArchive(entryName string) error {
	data, err := buildArchive(entryName, fmt.Sprintf(releaseScript, s.project))
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	s.put("/dl/"+s.archiveName(), data)
	s.put(s.manifestPath(), []byte(hex.EncodeToString(sum[:])+"  "+s.archiveName()+"\n"))
	return nil
}

func aPublishedRelease(ctx context.Context, project, version string) (context.Context, error) {
	state := getState(ctx)
	state.project = project
	state.version = version
	return ctx, state.publishArchive("./" + project)
}

func theManifestListsAWrongDigest(ctx context.Context) error {
	state := getState(ctx)
	state.put(state.manifestPath(), []byte(strings.Repeat("0", 64)+"  "+state.archiveName()+"\n"))
	return nil
}

func theManifestDoesNotListTheArchive(ctx context.Context) error {
	state := getState(ctx)
	state.put(state.manifestPath(), []byte(strings.Repeat("a", 64)+"  other_archive.tar.gz\n"))
	return nil
}

func theArchiveDoesNotContainTheBinary(ctx context.Context) error {
	state := getState(ctx)
	return state.publishArchive("README.md")
}

// iRun executes a command string, replacing "prelaunch" with the test binary
// path. The package root and release coordinates come from the environment.
func iRun(ctx context.Context, command string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	args := strings.Fields(command)
	if len(args) > 0 && args[0] == "prelaunch" {
		args[0] = state.binPath
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = state.rootDir
	cmd.Env = append(os.Environ(),
		"PRELAUNCH_ROOT="+state.rootDir,
		"PRELAUNCH_OWNER=acme",
		"PRELAUNCH_PROJECT="+state.project,
		"PRELAUNCH_VERSION="+state.version,
		"PRELAUNCH_BASE_URL="+state.server.URL+"/dl",
		"PRELAUNCH_ALLOW_INSECURE=true",
		"TMPDIR="+state.tmpDir,
	)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	state.stdout = stdout.String()
	state.stderr = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			state.exitCode = exitErr.ExitCode()
		} else {
			return ctx, fmt.Errorf("command execution failed: %w", err)
		}
	} else {
		state.exitCode = 0
	}

	return ctx, nil
}

func theExitCodeIs(ctx context.Context, expected int) error {
	state := getState(ctx)
	if state.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			expected, state.exitCode, state.stdout, state.stderr)
	}
	return nil
}

func theExitCodeIsNot(ctx context.Context, notExpected int) error {
	state := getState(ctx)
	if state.exitCode == notExpected {
		return fmt.Errorf("expected exit code to not be %d\nstdout: %s\nstderr: %s",
			notExpected, state.stdout, state.stderr)
	}
	return nil
}

func theOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theOutputDoesNotContain(ctx context.Context, text string) error {
	state := getState(ctx)
	if strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout not to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theErrorOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

// theFileExists checks a path relative to the package root.
func theFileExists(ctx context.Context, path string) error {
	state := getState(ctx)
	fullPath := filepath.Join(state.rootDir, path)
	if _, err := os.Lstat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("expected file %q to exist", fullPath)
	}
	return nil
}

func theFileDoesNotExist(ctx context.Context, path string) error {
	state := getState(ctx)
	fullPath := filepath.Join(state.rootDir, path)
	if _, err := os.Lstat(fullPath); err == nil {
		return fmt.Errorf("expected file %q not to exist", fullPath)
	}
	return nil
}

func noTemporaryFilesAreLeft(ctx context.Context) error {
	state := getState(ctx)
	entries, err := os.ReadDir(state.tmpDir)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return fmt.Errorf("temporary files left behind: %s", strings.Join(names, ", "))
	}
	return nil
}
