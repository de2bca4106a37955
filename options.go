package ttytest

import (
	"io"
	"os"
	"slices"
	"time"

	"github.com/Iron-Ham/ttytest/internal/config"
	"github.com/Iron-Ham/ttytest/internal/escalation"
	"github.com/Iron-Ham/ttytest/internal/launch"
	"github.com/Iron-Ham/ttytest/internal/logging"
	"github.com/Iron-Ham/ttytest/internal/textenc"
	"github.com/Iron-Ham/ttytest/internal/waiter"
)

// LaunchMode selects how the child process is started.
type LaunchMode = launch.Mode

const (
	// ModeFork runs a function registered with RegisterHelper in a
	// re-executed copy of the current binary.
	ModeFork = launch.ModeFork
	// ModeSpawn executes the command with plain pipes.
	ModeSpawn = launch.ModeSpawn
	// ModePTY executes the command with stdin and stdout on a pseudo-terminal.
	ModePTY = launch.ModePTY
)

// StderrMode selects what happens to output on the child's stderr.
type StderrMode = escalation.Mode

const (
	// StderrThrow aborts the run on the first stderr chunk.
	StderrThrow = escalation.ModeThrow
	// StderrCollect records stderr chunks in the Stderr history.
	StderrCollect = escalation.ModeCollect
)

// Defaults applied by Start to zero-valued options.
const (
	DefaultEncoding = textenc.Default
	DefaultTimeout  = waiter.DefaultTimeout
	DefaultDelay    = time.Millisecond
)

// Options configures a Handle. The zero value is valid: fork mode, UTF-8
// output, stderr escalation, one second wait timeout, logs on os.Stderr at
// INFO. Start copies the options, so later changes to the caller's value
// (including its slices) have no effect on a running handle.
type Options struct {
	// Args are passed to the child.
	Args []string

	// Mode is how the child is started (default ModeFork).
	Mode LaunchMode

	// Encoding names the text encoding of the child's output (default "utf-8").
	Encoding string

	// Debug logs every output chunk.
	Debug bool

	// LogLevel is the minimum level of the run log ("debug", "info",
	// "warn", "error"). Debug forces "debug".
	LogLevel string

	// LogWriter receives the JSON run log (default os.Stderr).
	LogWriter io.Writer

	// Stderr is what happens to stderr output (default StderrThrow).
	Stderr StderrMode

	// Timeout bounds WaitFor and Next unless a call passes Within
	// (default one second).
	Timeout time.Duration

	// Delay is the length of Handle.Wait when called with zero (default 1ms).
	Delay time.Duration

	// Dir is the child's working directory.
	Dir string

	// Env holds extra KEY=VALUE pairs for the child.
	Env []string

	// Rows and Cols set the terminal size in ModePTY (default 24x80).
	Rows, Cols uint16
}

// withDefaults returns a copy of o with every unset field defaulted.
func (o Options) withDefaults() Options {
	o.Args = slices.Clone(o.Args)
	o.Env = slices.Clone(o.Env)

	if o.Encoding == "" {
		o.Encoding = DefaultEncoding
	}
	if o.LogWriter == nil {
		o.LogWriter = os.Stderr
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if o.Rows == 0 {
		o.Rows = launch.DefaultRows
	}
	if o.Cols == 0 {
		o.Cols = launch.DefaultCols
	}
	return o
}

// logLevel resolves Debug and LogLevel to a logging level.
func (o Options) logLevel() string {
	if o.Debug {
		return logging.LevelDebug
	}
	if o.LogLevel == "" {
		return logging.LevelInfo
	}
	return logging.ParseLevel(o.LogLevel)
}

// OptionsFromConfig converts a loaded configuration into Options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	mode, err := launch.ParseMode(cfg.Launch.Mode)
	if err != nil {
		return Options{}, err
	}
	stderr, err := escalation.ParseMode(cfg.Stderr.Mode)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Mode:     mode,
		Encoding: cfg.Launch.Encoding,
		Dir:      cfg.Launch.Dir,
		Rows:     uint16(cfg.Launch.Rows),
		Cols:     uint16(cfg.Launch.Cols),
		Stderr:   stderr,
		Timeout:  cfg.Wait.Timeout(),
		Delay:    cfg.Wait.Delay(),
		Debug:    cfg.Logging.Debug,
		LogLevel: cfg.Logging.EffectiveLevel(),
	}, nil
}

// OptionsFromEnv returns the default Options overridden by TTYTEST_*
// environment variables, such as TTYTEST_STDERR_MODE=collect or
// TTYTEST_LOGGING_DEBUG=true.
func OptionsFromEnv() (Options, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return Options{}, err
	}
	return OptionsFromConfig(cfg)
}
