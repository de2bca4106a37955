package launch

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/ttytest/internal/errors"
)

// Mode selects how a child process is started.
type Mode int

const (
	// ModeFork runs a registered helper in a re-executed copy of this binary.
	ModeFork Mode = iota
	// ModeSpawn executes the command with plain pipes.
	ModeSpawn
	// ModePTY executes the command with stdin and stdout on a pseudo-terminal.
	ModePTY
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeFork:
		return "fork"
	case ModeSpawn:
		return "spawn"
	case ModePTY:
		return "pty"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseMode converts a mode name (case-insensitive) to a Mode.
// The empty string selects ModeFork.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fork":
		return ModeFork, nil
	case "spawn":
		return ModeSpawn, nil
	case "pty":
		return ModePTY, nil
	default:
		return ModeFork, errors.NewValidationError("unknown launch mode").
			WithField("launch.mode").
			WithValue(s)
	}
}

// ValidModes returns the accepted mode names.
func ValidModes() []string {
	return []string{ModeFork.String(), ModeSpawn.String(), ModePTY.String()}
}
