package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/ttytest/internal/errors"
	"github.com/Iron-Ham/ttytest/internal/testutil"
)

// executeCommand runs a fresh command tree with args and returns captured
// stdout and stderr.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	testutil.SkipIfMissing(t, "sh", "cat")

	// Keep the user's real config file out of the way
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := newRootCmd(viper.New())
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd(viper.New())

	if root.Use != "ttytest" {
		t.Errorf("root.Use = %q, want %q", root.Use, "ttytest")
	}

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "config"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestRun_WaitFor(t *testing.T) {
	out, _, err := executeCommand(t, "run",
		"--wait-for", "starting",
		"--wait-for", "ready",
		"--timeout", "5s",
		"--", "sh", "-c", "echo starting; sleep 0.05; echo ready; sleep 5")

	require.NoError(t, err)
	assert.Contains(t, out, `ok    wait_for "starting" on stdout`)
	assert.Contains(t, out, `ok    wait_for "ready" on stdout`)
}

func TestRun_WaitForTimeout(t *testing.T) {
	out, _, err := executeCommand(t, "run",
		"--wait-for", "missing",
		"--timeout", "50ms",
		"cat")

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTimeout)
	assert.Contains(t, out, `FAIL  wait_for "missing" on stdout`)
}

func TestRun_IgnoreANSI(t *testing.T) {
	out, _, err := executeCommand(t, "run",
		"--ignore-ansi",
		"--wait-for", "status: ok",
		"--timeout", "5s",
		"--", "sh", "-c", `printf 'status: \033[1mok\033[0m\n'; sleep 5`)

	require.NoError(t, err)
	assert.Contains(t, out, `ok    wait_for "status: ok" on stdout`)
}

func TestRun_StderrThrows(t *testing.T) {
	_, _, err := executeCommand(t, "run", "--", "sh", "-c", "echo oops >&2; sleep 5")

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStderrOutput)
	assert.Equal(t, "oops\n", err.Error())
}

func TestRun_StderrCollectFromEnv(t *testing.T) {
	t.Setenv("TTYTEST_STDERR_MODE", "collect")

	out, _, err := executeCommand(t, "run", "--print", "--", "sh", "-c", "echo oops >&2; echo fine")

	require.NoError(t, err)
	assert.Equal(t, "fine\n", out)
}

func TestRun_FlagOverridesEnv(t *testing.T) {
	t.Setenv("TTYTEST_STDERR_MODE", "collect")

	_, _, err := executeCommand(t, "run", "--stderr", "throw", "--", "sh", "-c", "echo oops >&2; sleep 5")

	assert.ErrorIs(t, err, errors.ErrStderrOutput)
}

func TestRun_ExitCode(t *testing.T) {
	_, _, err := executeCommand(t, "run", "--", "sh", "-c", "exit 3")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with code 3")
}

func TestRun_Script(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greet.yaml")
	script := `
name: greet
command: sh
args: ["-c", "read name; echo hello $name"]
steps:
  - send: "world\n"
  - wait_for: hello world
    timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0644))

	out, _, err := executeCommand(t, "run", "--script", path)

	require.NoError(t, err)
	assert.Contains(t, out, `ok    send "world\n"`)
	assert.Contains(t, out, `ok    wait_for "hello world" on stdout`)
}

func TestRun_Errors(t *testing.T) {
	t.Run("no command", func(t *testing.T) {
		_, _, err := executeCommand(t, "run")
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("invalid mode", func(t *testing.T) {
		_, _, err := executeCommand(t, "run", "--mode", "thread", "--", "true")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "launch.mode")
	})

	t.Run("missing script", func(t *testing.T) {
		_, _, err := executeCommand(t, "run", "--script", filepath.Join(t.TempDir(), "nope.yaml"), "--", "true")
		assert.Error(t, err)
	})
}

func TestRun_LogDir(t *testing.T) {
	dir := t.TempDir()
	_, _, err := executeCommand(t, "run", "--debug", "--log-dir", dir, "--", "sh", "-c", "echo logged")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"output chunk"`)
	assert.Contains(t, string(data), `"chunk":"logged\n"`)
}

func TestConfigShow(t *testing.T) {
	t.Setenv("TTYTEST_WAIT_TIMEOUT_MS", "2500")

	out, _, err := executeCommand(t, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "(none - using defaults)")
	assert.Contains(t, out, "launch:\n")
	assert.Contains(t, out, "mode: spawn")
	assert.Contains(t, out, "timeout_ms: 2500")
	assert.True(t, strings.Index(out, "launch:") < strings.Index(out, "logging:"), "sections keep file order")
}

func TestConfigShow_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stderr:\n  mode: collect\n"), 0644))

	out, _, err := executeCommand(t, "--config", path, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "# config file: "+path)
	assert.Contains(t, out, "mode: collect")
}

func TestConfigInitAndPath(t *testing.T) {
	xdg := t.TempDir()

	root := newRootCmd(viper.New())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	t.Setenv("XDG_CONFIG_HOME", xdg)

	root.SetArgs([]string{"config", "path"})
	require.NoError(t, root.Execute())
	want := filepath.Join(xdg, "ttytest", "config.yaml")
	assert.Equal(t, want+"\n", out.String())

	root.SetArgs([]string{"config", "init"})
	require.NoError(t, root.Execute())
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mode: fork")
	assert.Contains(t, string(data), "timeout_ms: 1000")

	root.SetArgs([]string{"config", "init"})
	assert.Error(t, root.Execute(), "init refuses to overwrite")
}
