// Package escalation classifies chunks arriving on a child's stderr: either
// every chunk aborts the run, or chunks are collected for later inspection.
package escalation

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/ttytest/internal/errors"
	"github.com/Iron-Ham/ttytest/internal/history"
	"github.com/Iron-Ham/ttytest/internal/logging"
)

// Mode selects how stderr output is handled.
type Mode int

const (
	// ModeThrow turns any stderr chunk into a fatal *errors.StderrError.
	ModeThrow Mode = iota
	// ModeCollect records stderr chunks in the stderr history.
	ModeCollect
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeThrow:
		return "throw"
	case ModeCollect:
		return "collect"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseMode converts "throw" or "collect" (case-insensitive) to a Mode.
// The empty string selects ModeThrow.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "throw":
		return ModeThrow, nil
	case "collect":
		return ModeCollect, nil
	default:
		return ModeThrow, errors.NewValidationError("unknown stderr mode").
			WithField("stderr.mode").
			WithValue(s)
	}
}

// ValidModes returns the accepted mode names.
func ValidModes() []string {
	return []string{ModeThrow.String(), ModeCollect.String()}
}

// Policy applies a Mode to each stderr chunk. The mode is fixed for the
// lifetime of the policy.
type Policy struct {
	mode    Mode
	sink    history.Appender
	logger  *logging.Logger
	command string
}

// New creates a Policy recording collected chunks into sink. A nil logger
// disables the debug side effect.
func New(mode Mode, sink history.Appender, logger *logging.Logger) *Policy {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Policy{
		mode:   mode,
		sink:   sink,
		logger: logger.WithStream("stderr"),
	}
}

// WithCommand tags escalated errors with the command that produced them.
func (p *Policy) WithCommand(command string) *Policy {
	p.command = command
	return p
}

// Mode returns the policy's mode.
func (p *Policy) Mode() Mode {
	return p.mode
}

// Handle classifies one chunk. The chunk is first surfaced to the debug
// logger. In ModeThrow it returns a *errors.StderrError carrying the chunk
// and records nothing; in ModeCollect it appends the chunk and returns nil.
func (p *Policy) Handle(chunk string) error {
	p.logger.Debug("output chunk", "chunk", chunk)

	if p.mode == ModeThrow {
		return errors.NewStderrError(chunk).WithCommand(p.command)
	}

	p.sink.Append(chunk)
	return nil
}
