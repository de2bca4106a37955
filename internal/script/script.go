// Package script loads YAML scenarios describing an interaction with a child
// process (wait for output, send input, pause) and runs them against a
// ttytest handle.
//
//	command: sh
//	args: ["-c", "read name; echo hello $name"]
//	mode: spawn
//	steps:
//	  - send: "world\n"
//	  - wait_for: "hello world"
//	    timeout: 2s
package script

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/ttytest/internal/errors"
	"github.com/Iron-Ham/ttytest/internal/util"
)

// Stream names accepted by Step.Stream.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Script is a parsed scenario.
type Script struct {
	Name string `yaml:"name,omitempty"`

	// Command, Args and Mode describe the child when the caller does not.
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	Mode    string   `yaml:"mode,omitempty"`

	Steps []Step `yaml:"steps"`
}

// maxTargetLen bounds the literal text quoted by Step.String.
const maxTargetLen = 60

// Step is one action. Exactly one of WaitFor, Pattern, Next, Send, Sleep
// and CloseStdin is set.
type Step struct {
	Name string `yaml:"name,omitempty"`

	WaitFor    string   `yaml:"wait_for,omitempty"`
	Pattern    string   `yaml:"pattern,omitempty"`
	Next       bool     `yaml:"next,omitempty"`
	Send       string   `yaml:"send,omitempty"`
	Sleep      Duration `yaml:"sleep,omitempty"`
	CloseStdin bool     `yaml:"close_stdin,omitempty"`

	// Stream is the history a wait watches: "stdout" (default) or "stderr".
	Stream string `yaml:"stream,omitempty"`
	// OnlyNew ignores output recorded before the step starts.
	OnlyNew bool `yaml:"only_new,omitempty"`
	// IgnoreANSI matches against output with escape sequences removed.
	IgnoreANSI bool `yaml:"ignore_ansi,omitempty"`
	// Timeout overrides the handle's wait timeout for this step.
	Timeout Duration `yaml:"timeout,omitempty"`

	re *regexp.Regexp
}

// Duration is a time.Duration written in YAML either as a Go duration
// string ("250ms", "2s") or as an integer number of milliseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}

	var ms int64
	if err := value.Decode(&ms); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", value.Line, value.Value)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Action returns the name of the step's action.
func (s Step) Action() string {
	switch {
	case s.WaitFor != "":
		return "wait_for"
	case s.Pattern != "":
		return "pattern"
	case s.Next:
		return "next"
	case s.Send != "":
		return "send"
	case s.Sleep > 0:
		return "sleep"
	case s.CloseStdin:
		return "close_stdin"
	default:
		return ""
	}
}

// String describes the step for reports.
func (s Step) String() string {
	if s.Name != "" {
		return s.Name
	}
	switch s.Action() {
	case "wait_for":
		return fmt.Sprintf("wait_for %q on %s", util.TruncateString(s.WaitFor, maxTargetLen), s.stream())
	case "pattern":
		return fmt.Sprintf("pattern /%s/ on %s", s.Pattern, s.stream())
	case "next":
		return "next on " + s.stream()
	case "send":
		return fmt.Sprintf("send %q", util.TruncateString(s.Send, maxTargetLen))
	case "sleep":
		return "sleep " + s.Sleep.Std().String()
	case "close_stdin":
		return "close_stdin"
	default:
		return "empty step"
	}
}

func (s Step) stream() string {
	if s.Stream == "" {
		return StreamStdout
	}
	return s.Stream
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.WaitFor != "",
		s.Pattern != "",
		s.Next,
		s.Send != "",
		s.Sleep > 0,
		s.CloseStdin,
	} {
		if set {
			n++
		}
	}
	return n
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.NewValidationError("script path is required").WithField("script")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// Parse decodes and validates a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step and compiles patterns.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return errors.NewValidationError("script has no steps").WithField("steps")
	}

	for i := range s.Steps {
		step := &s.Steps[i]
		field := fmt.Sprintf("steps[%d]", i)

		switch step.actions() {
		case 0:
			return errors.NewValidationError("step has no action").WithField(field)
		case 1:
		default:
			return errors.NewValidationError("step has more than one action").WithField(field)
		}

		if step.Stream != "" && step.Stream != StreamStdout && step.Stream != StreamStderr {
			return errors.NewValidationError("stream must be stdout or stderr").
				WithField(field + ".stream").
				WithValue(step.Stream)
		}
		if step.Timeout < 0 {
			return errors.NewValidationError("timeout must be non-negative").
				WithField(field + ".timeout").
				WithValue(step.Timeout.Std())
		}

		if step.Pattern != "" {
			re, err := regexp.Compile(step.Pattern)
			if err != nil {
				return errors.NewValidationError("invalid pattern").
					WithField(field + ".pattern").
					WithValue(step.Pattern).
					WithCause(err)
			}
			step.re = re
		}
	}
	return nil
}
