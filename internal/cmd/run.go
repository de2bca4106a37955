package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/ttytest"
	"github.com/Iron-Ham/ttytest/internal/config"
	"github.com/Iron-Ham/ttytest/internal/errors"
	"github.com/Iron-Ham/ttytest/internal/logging"
	"github.com/Iron-Ham/ttytest/internal/script"
)

type runOptions struct {
	scriptPath string
	waitFor    []string
	ignoreANSI bool
	timeout    time.Duration
	dir        string
	env        []string
	print      bool
}

// runFlagKeys maps run flags to the config keys they override.
var runFlagKeys = map[string]string{
	"mode":     "launch.mode",
	"encoding": "launch.encoding",
	"stderr":   "stderr.mode",
	"debug":    "logging.debug",
	"log-dir":  "logging.dir",
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	ro := &runOptions{}

	c := &cobra.Command{
		Use:   "run [flags] [--] command [args...]",
		Short: "Run a command and wait for its output",
		Long: `Run a command, record its output and wait for expected output.

Each --wait-for waits, in order, for a chunk of stdout containing the text.
A --script file describes a longer interaction; its steps run before any
--wait-for. Without either, run waits for the command to exit and fails if
it exits non-zero.

Examples:
  # Wait for a server to come up
  ttytest run --wait-for "listening" -- ./server --port 8080

  # Drive an interactive program on a terminal
  ttytest run --mode pty --script login.yaml -- ./cli

  # Match colored output as plain text
  ttytest run --ignore-ansi --wait-for "status: ok" -- ./healthcheck

  # Tolerate warnings on stderr
  ttytest run --stderr collect --print -- make test`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, v, ro, args)
		},
	}

	f := c.Flags()
	// Everything after the command belongs to it.
	f.SetInterspersed(false)

	f.StringVar(&ro.scriptPath, "script", "", "YAML script of steps to run against the command")
	f.StringArrayVarP(&ro.waitFor, "wait-for", "w", nil, "wait for stdout containing this text (repeatable, in order)")
	f.BoolVar(&ro.ignoreANSI, "ignore-ansi", false, "match --wait-for text with terminal escape sequences removed")
	f.DurationVar(&ro.timeout, "timeout", 0, "timeout of each wait (default from wait.timeout_ms)")
	f.StringVar(&ro.dir, "dir", "", "working directory of the command")
	f.StringArrayVarP(&ro.env, "env", "e", nil, "extra KEY=VALUE for the command (repeatable)")
	f.BoolVar(&ro.print, "print", false, "print the recorded stdout when done")

	f.String("mode", "spawn", "launch mode: spawn or pty")
	f.String("encoding", "utf-8", "text encoding of the command's output")
	f.String("stderr", "throw", "stderr handling: throw (fail on any output) or collect")
	f.Bool("debug", false, "log every output chunk")
	f.String("log-dir", "", "write logs to {dir}/debug.log instead of stderr")

	bindFlags(v, f, runFlagKeys)
	return c
}

// bindFlags binds each named flag to its viper key.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		_ = v.BindPFlag(key, fs.Lookup(name))
	}
}

func runRun(cmd *cobra.Command, v *viper.Viper, ro *runOptions, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sc, err := buildScript(ro)
	if err != nil {
		return err
	}

	command, cmdArgs := "", []string(nil)
	switch {
	case len(args) > 0:
		command, cmdArgs = args[0], args[1:]
	case sc != nil && sc.Command != "":
		command, cmdArgs = sc.Command, sc.Args
		if sc.Mode != "" && !cmd.Flags().Changed("mode") {
			cfg.Launch.Mode = sc.Mode
		}
	default:
		return errors.NewValidationError("no command given").WithField("command")
	}

	opts, err := ttytest.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts.Args = cmdArgs
	opts.Env = ro.env
	if ro.timeout > 0 {
		opts.Timeout = ro.timeout
	}
	if ro.dir != "" {
		opts.Dir = ro.dir
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()
	opts.LogWriter = logger.Output()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := ttytest.Start(ctx, command, opts)
	if err != nil {
		return err
	}
	defer h.Close()

	out := cmd.OutOrStdout()
	if sc != nil {
		runner := script.NewRunner(logger.WithCommand(command), func(r script.Result) {
			printResult(out, r)
		})
		if _, err := runner.Run(ctx, h, sc); err != nil {
			return fmt.Errorf("%s failed: %w", sc.Name, err)
		}
	} else {
		select {
		case <-h.Finished():
		case <-ctx.Done():
			return context.Cause(ctx)
		}
		if err := h.Err(); err != nil {
			return err
		}
		if code := h.ExitCode(); code != 0 {
			return errors.NewProcessError(fmt.Sprintf("exited with code %d", code), nil).
				WithCommand(command).
				WithPID(h.PID())
		}
	}

	if ro.print {
		fmt.Fprint(out, h.Stdout().Text())
	}
	return nil
}

// buildScript combines --script and --wait-for into one script, or returns
// nil when neither is given.
func buildScript(ro *runOptions) (*script.Script, error) {
	var sc *script.Script
	if ro.scriptPath != "" {
		loaded, err := script.Load(ro.scriptPath)
		if err != nil {
			return nil, err
		}
		sc = loaded
	}

	if len(ro.waitFor) == 0 {
		return sc, nil
	}
	if sc == nil {
		sc = &script.Script{Name: "wait-for"}
	}
	for _, target := range ro.waitFor {
		sc.Steps = append(sc.Steps, script.Step{WaitFor: target, IgnoreANSI: ro.ignoreANSI})
	}
	return sc, sc.Validate()
}

func newLogger(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.Logging.EffectiveLevel())
	if cfg.Logging.Dir != "" {
		return logging.NewFileLogger(cfg.Logging.Dir, level)
	}
	return logging.NewLogger(w, level), nil
}

func printResult(w io.Writer, r script.Result) {
	if r.OK() {
		fmt.Fprintf(w, "ok    %s (%s)\n", r.Step, r.Elapsed.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(w, "FAIL  %s: %v\n", r.Step, r.Err)
}
