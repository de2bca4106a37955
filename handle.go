package ttytest

import (
	"context"
	"io"
	"sync"

	"github.com/sourcegraph/conc"
	"golang.org/x/text/encoding"

	"github.com/Iron-Ham/ttytest/internal/errors"
	"github.com/Iron-Ham/ttytest/internal/escalation"
	"github.com/Iron-Ham/ttytest/internal/history"
	"github.com/Iron-Ham/ttytest/internal/launch"
	"github.com/Iron-Ham/ttytest/internal/logging"
	"github.com/Iron-Ham/ttytest/internal/textenc"
)

// chunkSize is the largest chunk a single read can produce.
const chunkSize = 32 * 1024

// Handle is a running child process and the recorded history of its output.
// It is safe for concurrent use. Close must be called to release it.
type Handle struct {
	command string
	opts    Options

	proc   *launch.Process
	stdout *history.Buffer
	stderr *history.Buffer
	policy *escalation.Policy
	logger *logging.Logger

	// ctx is canceled when the run ends early: escalation, Close, or
	// cancellation of the context given to Start. Every wait derives from it.
	ctx    context.Context
	cancel context.CancelCauseFunc

	pumps    conc.WaitGroup
	finished chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	closeErr  error
}

// Start launches command and begins recording its output.
//
// In ModeFork command is the name of a helper registered with
// RegisterHelper; otherwise it is an executable looked up in PATH.
// Canceling ctx aborts the run: the child is killed and pending waits reject
// with the context's cause.
func Start(ctx context.Context, command string, opts Options) (*Handle, error) {
	opts = opts.withDefaults()

	enc, err := textenc.Lookup(opts.Encoding)
	if err != nil {
		return nil, errors.NewProcessError("resolve encoding", err).WithCommand(command)
	}

	logger := logging.NewLogger(opts.LogWriter, opts.logLevel()).WithCommand(command)

	runCtx, cancel := context.WithCancelCause(ctx)
	proc, err := launch.Start(runCtx, launch.Spec{
		Command: command,
		Args:    opts.Args,
		Mode:    opts.Mode,
		Dir:     opts.Dir,
		Env:     opts.Env,
		Rows:    opts.Rows,
		Cols:    opts.Cols,
	})
	if err != nil {
		cancel(err)
		logger.Error("start failed", "error", err.Error())
		return nil, err
	}

	logger = logger.WithPID(proc.PID())
	h := &Handle{
		command:  command,
		opts:     opts,
		proc:     proc,
		stdout:   history.NewBuffer("stdout"),
		stderr:   history.NewBuffer("stderr"),
		logger:   logger,
		ctx:      runCtx,
		cancel:   cancel,
		finished: make(chan struct{}),
	}
	h.policy = escalation.New(opts.Stderr, h.stderr, logger).WithCommand(command)

	logger.Info("process started",
		"mode", opts.Mode.String(),
		"args", opts.Args,
		"stderr", opts.Stderr.String(),
		"encoding", opts.Encoding,
	)

	stdoutLog := logger.WithStream("stdout")
	h.pumps.Go(func() {
		h.pump(proc.Stdout, enc, func(chunk string) error {
			stdoutLog.Debug("output chunk", "chunk", chunk)
			h.stdout.Append(chunk)
			return nil
		})
	})
	h.pumps.Go(func() {
		h.pump(proc.Stderr, enc, h.policy.Handle)
	})
	go h.supervise()

	return h, nil
}

// pump reads r until the stream ends, decoding each read into one chunk
// for sink. A sink error aborts the run.
func (h *Handle) pump(r io.Reader, enc encoding.Encoding, sink func(string) error) {
	dec := textenc.NewReader(r, enc)
	buf := make([]byte, chunkSize)

	for {
		n, err := dec.Read(buf)
		if n > 0 {
			if serr := sink(string(buf[:n])); serr != nil {
				h.abort(serr)
				return
			}
		}
		if err != nil {
			if !launch.IsEndOfStream(err) && h.ctx.Err() == nil {
				h.logger.Warn("read failed", "error", err.Error())
			}
			return
		}
	}
}

// supervise logs the exit and closes finished once all output is recorded.
func (h *Handle) supervise() {
	defer close(h.finished)

	<-h.proc.Done()
	h.logger.Info("process exited",
		"exit_code", h.proc.ExitCode(),
		"state", h.proc.State().String(),
		"runtime", h.proc.Runtime().String(),
	)

	h.pumps.Wait()
}

// abort records err as the run's failure, rejects every pending wait with
// it and kills the child. Only the first failure is kept.
func (h *Handle) abort(err error) {
	h.mu.Lock()
	if h.err != nil {
		h.mu.Unlock()
		return
	}
	h.err = err
	h.mu.Unlock()

	h.logger.Warn("run aborted", "error", err.Error())
	h.cancel(err)
	if kerr := h.proc.Kill(); kerr != nil {
		h.logger.Warn("kill failed", "error", kerr.Error())
	}
}

// Command returns the command the handle was started with.
func (h *Handle) Command() string {
	return h.command
}

// Options returns the effective options, with defaults applied.
func (h *Handle) Options() Options {
	return h.opts
}

// Stdin returns the writer feeding the child's standard input.
func (h *Handle) Stdin() io.WriteCloser {
	return h.proc.Stdin
}

// Send writes input to the child's standard input.
func (h *Handle) Send(input string) error {
	_, err := io.WriteString(h.proc.Stdin, input)
	return err
}

// CloseStdin signals end of input to the child.
func (h *Handle) CloseStdin() error {
	return h.proc.CloseStdin()
}

// Stdout returns the history of chunks read from standard output.
func (h *Handle) Stdout() View {
	return h.stdout
}

// Stderr returns the history of chunks read from standard error. It stays
// empty under StderrThrow.
func (h *Handle) Stderr() View {
	return h.stderr
}

// Err returns the failure that aborted the run, or nil. Under StderrThrow
// this is the *StderrError raised by the first stderr chunk.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Failed reports whether the run was aborted by a failure.
func (h *Handle) Failed() bool {
	return h.Err() != nil
}

// PID returns the child's process ID.
func (h *Handle) PID() int {
	return h.proc.PID()
}

// Done returns a channel that is closed when the child exits.
func (h *Handle) Done() <-chan struct{} {
	return h.proc.Done()
}

// Finished returns a channel that is closed once the child has exited and
// every chunk it wrote has been recorded.
func (h *Handle) Finished() <-chan struct{} {
	return h.finished
}

// ExitCode returns the child's exit code, or -1 while it runs or when it
// was killed by a signal.
func (h *Handle) ExitCode() int {
	return h.proc.ExitCode()
}

// Close kills the child if it still runs, rejects pending waits with
// ErrHandleClosed and releases the streams. It is safe to call more than
// once.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.cancel(errors.ErrHandleClosed)
		if err := h.proc.Kill(); err != nil {
			h.logger.Warn("kill failed", "error", err.Error())
		}
		<-h.proc.Done()

		// A grandchild may still hold the pipes; closing our ends
		// unblocks the pumps either way.
		h.closeErr = h.proc.Close()
		<-h.finished
		h.logger.Debug("handle closed")
	})
	return h.closeErr
}
