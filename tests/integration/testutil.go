// Package integration runs the wlsqlite binary end to end against file
// databases in isolated directories.
package integration

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// wlsqliteBin is the path to the built wlsqlite binary.
	wlsqliteBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot walks up from the working directory to the directory
// holding go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// TestEnv is an isolated config directory and data directory.
type TestEnv struct {
	t       *testing.T
	Config  string
	DataDir string
}

// NewTestEnv writes config.yaml and schema.yaml into a fresh config
// directory. The connection stores its database as data.sqlite.
func NewTestEnv(t *testing.T, schema string) *TestEnv {
	t.Helper()
	if buildErr != nil {
		t.Fatalf("failed to build wlsqlite: %v", buildErr)
	}
	require.NotEmpty(t, wlsqliteBin, "wlsqlite binary not built")

	tempDir := t.TempDir()
	env := &TestEnv{
		t:       t,
		Config:  filepath.Join(tempDir, "config"),
		DataDir: filepath.Join(tempDir, "data"),
	}
	require.NoError(t, os.MkdirAll(env.Config, 0o755))

	config := "connection:\n  identity: it\n  filename: data.sqlite\nschema_file: schema.yaml\n"
	require.NoError(t, os.WriteFile(filepath.Join(env.Config, "config.yaml"), []byte(config), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(env.Config, "schema.yaml"), []byte(schema), 0o644))
	return env
}

// CmdResult holds the result of one wlsqlite invocation.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes wlsqlite with the environment's directories prepended.
func (e *TestEnv) Run(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.Config, "--data-dir", e.DataDir}, args...)
	cmd := exec.Command(wlsqliteBin, allArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			e.t.Fatalf("failed to run wlsqlite: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}
	return CmdResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}
}

// MustRun is Run that fails the test on a non-zero exit.
func (e *TestEnv) MustRun(args ...string) CmdResult {
	e.t.Helper()
	result := e.Run(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("wlsqlite %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal([]byte(s), &result), "parsing %q", s)
	return result
}

// Row is one decoded record as printed by the CLI.
type Row = map[string]any
