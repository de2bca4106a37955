package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/ttytest/internal/errors"
)

func TestParse(t *testing.T) {
	data := []byte(`
name: login
command: sh
args: ["-c", "read name; echo hello $name"]
mode: spawn
steps:
  - send: "world\n"
  - wait_for: hello
    timeout: 250ms
  - pattern: 'hel+o \w+'
    stream: stdout
    only_new: true
  - next: true
    timeout: 1500
  - sleep: 10ms
  - close_stdin: true
`)

	s, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "login", s.Name)
	assert.Equal(t, "sh", s.Command)
	assert.Equal(t, []string{"-c", "read name; echo hello $name"}, s.Args)
	assert.Equal(t, "spawn", s.Mode)
	require.Len(t, s.Steps, 6)

	actions := make([]string, len(s.Steps))
	for i, step := range s.Steps {
		actions[i] = step.Action()
	}
	assert.Equal(t, []string{"send", "wait_for", "pattern", "next", "sleep", "close_stdin"}, actions)

	assert.Equal(t, "world\n", s.Steps[0].Send)
	assert.Equal(t, 250*time.Millisecond, s.Steps[1].Timeout.Std())
	assert.True(t, s.Steps[2].OnlyNew)
	assert.NotNil(t, s.Steps[2].re, "patterns are compiled during validation")
	assert.Equal(t, 1500*time.Millisecond, s.Steps[3].Timeout.Std())
	assert.Equal(t, 10*time.Millisecond, s.Steps[4].Sleep.Std())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantField string
	}{
		{"no steps", "name: empty\n", "steps"},
		{"step without action", "steps:\n  - timeout: 1s\n", "steps[0]"},
		{"two actions", "steps:\n  - send: x\n    next: true\n", "steps[0]"},
		{"bad stream", "steps:\n  - next: true\n    stream: stdlog\n", "steps[0].stream"},
		{"bad pattern", "steps:\n  - send: x\n  - pattern: '(unclosed'\n", "steps[1].pattern"},
		{"negative timeout", "steps:\n  - next: true\n    timeout: -5ms\n", "steps[0].timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)

			var verr *errors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("steps:\n  - sleep: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid duration "soon"`)

	_, err = Parse([]byte("steps: [unterminated"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - next: true\n"), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Name, "name defaults to the file path")
	assert.Len(t, s.Steps, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load("  ")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestStep_String(t *testing.T) {
	tests := []struct {
		step Step
		want string
	}{
		{Step{Name: "login prompt", WaitFor: "login:"}, "login prompt"},
		{Step{WaitFor: "ready"}, `wait_for "ready" on stdout`},
		{Step{WaitFor: "oops", Stream: StreamStderr}, `wait_for "oops" on stderr`},
		{Step{Pattern: `\d+`}, `pattern /\d+/ on stdout`},
		{Step{Next: true}, "next on stdout"},
		{Step{Send: "y\n"}, `send "y\n"`},
		{Step{Sleep: Duration(50 * time.Millisecond)}, "sleep 50ms"},
		{Step{CloseStdin: true}, "close_stdin"},
		{Step{}, "empty step"},
		{Step{Send: strings.Repeat("x", 80)}, `send "` + strings.Repeat("x", 57) + `..."`},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.step.String())
		})
	}
}
