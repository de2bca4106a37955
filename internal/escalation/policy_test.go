package escalation

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/Iron-Ham/ttytest/internal/errors"
	"github.com/Iron-Ham/ttytest/internal/history"
	"github.com/Iron-Ham/ttytest/internal/logging"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", ModeThrow, false},
		{"throw", ModeThrow, false},
		{"THROW", ModeThrow, false},
		{" collect ", ModeCollect, false},
		{"ignore", ModeThrow, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("expected a validation error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMode_String(t *testing.T) {
	if ModeThrow.String() != "throw" || ModeCollect.String() != "collect" {
		t.Errorf("unexpected mode names: %q, %q", ModeThrow, ModeCollect)
	}
	if Mode(7).String() != "unknown(7)" {
		t.Errorf("Mode(7).String() = %q", Mode(7).String())
	}
	if !reflect.DeepEqual(ValidModes(), []string{"throw", "collect"}) {
		t.Errorf("ValidModes() = %v", ValidModes())
	}
}

func TestPolicy_Throw(t *testing.T) {
	buf := history.NewBuffer("stderr")
	p := New(ModeThrow, buf, nil).WithCommand("server")

	for _, chunk := range []string{"warning: low disk\n", "panic: boom\n"} {
		err := p.Handle(chunk)
		if err == nil {
			t.Fatalf("Handle(%q) returned nil in throw mode", chunk)
		}
		if err.Error() != chunk {
			t.Errorf("error message = %q, want the chunk %q", err.Error(), chunk)
		}
		if !errors.Is(err, errors.ErrStderrOutput) {
			t.Errorf("expected ErrStderrOutput, got %v", err)
		}
		if !errors.IsFatal(err) {
			t.Error("escalated error should be fatal")
		}

		var stderrErr *errors.StderrError
		if !errors.As(err, &stderrErr) || stderrErr.Command != "server" {
			t.Errorf("expected *StderrError tagged with the command, got %#v", err)
		}
	}

	if buf.Len() != 0 {
		t.Errorf("throw mode appended %d chunks, want 0", buf.Len())
	}
}

func TestPolicy_Collect(t *testing.T) {
	buf := history.NewBuffer("stderr")
	p := New(ModeCollect, buf, nil)

	chunks := []string{"one\n", "two\n", "three\n"}
	for _, chunk := range chunks {
		if err := p.Handle(chunk); err != nil {
			t.Fatalf("Handle(%q) returned error in collect mode: %v", chunk, err)
		}
	}

	if got := buf.Snapshot(); !reflect.DeepEqual(got, chunks) {
		t.Errorf("collected %q, want %q in order", got, chunks)
	}
	if p.Mode() != ModeCollect {
		t.Errorf("Mode() = %v", p.Mode())
	}
}

func TestPolicy_DebugSinkRunsFirst(t *testing.T) {
	for _, mode := range []Mode{ModeThrow, ModeCollect} {
		t.Run(mode.String(), func(t *testing.T) {
			var out bytes.Buffer
			p := New(mode, history.NewBuffer("stderr"), logging.NewLogger(&out, logging.LevelDebug))

			_ = p.Handle("oops\n")

			line := strings.TrimSpace(out.String())
			var entry map[string]any
			if err := json.Unmarshal([]byte(line), &entry); err != nil {
				t.Fatalf("debug sink did not receive a JSON entry: %q", line)
			}
			if entry["chunk"] != "oops\n" || entry["stream"] != "stderr" {
				t.Errorf("unexpected debug entry: %v", entry)
			}
		})
	}
}

func TestPolicy_DebugSinkQuietAtInfo(t *testing.T) {
	var out bytes.Buffer
	p := New(ModeCollect, history.NewBuffer("stderr"), logging.NewLogger(&out, logging.LevelInfo))

	_ = p.Handle("oops\n")

	if out.Len() != 0 {
		t.Errorf("expected no debug output at INFO level, got %q", out.String())
	}
}
