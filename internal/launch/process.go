package launch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	"github.com/Iron-Ham/ttytest/internal/errors"
)

// State represents the state of a process.
type State int

const (
	// StateCreated indicates the process has been created but not started.
	StateCreated State = iota
	// StateRunning indicates the process is currently running.
	StateRunning
	// StateExited indicates the process has exited normally or with an error.
	StateExited
	// StateKilled indicates the process was killed by a signal.
	StateKilled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Default pseudo-terminal size.
const (
	DefaultRows = 24
	DefaultCols = 80
)

// eot is the terminal end-of-transmission character (Ctrl-D).
const eot = "\x04"

// Spec describes a child process to start.
type Spec struct {
	// Command is the executable to run, or the helper name in ModeFork.
	Command string

	// Args are passed to the child. In ModeFork they become the helper's args.
	Args []string

	// Mode selects how the child is started.
	Mode Mode

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE pairs added on top of the parent environment.
	Env []string

	// Rows and Cols set the terminal size in ModePTY. Zero selects the defaults.
	Rows, Cols uint16
}

// Process is a started child process.
//
// Process wraps an exec.Cmd with exit tracking and access to the parent ends
// of the child's standard streams. It is safe for concurrent use.
type Process struct {
	// Command is the command (or helper name) the process was started from.
	Command string

	// Mode is the mode the process was started in.
	Mode Mode

	// Stdin writes to the child's standard input.
	Stdin io.WriteCloser

	// Stdout reads the child's standard output. In ModePTY this is the pty
	// master and also carries the terminal's echo of Stdin.
	Stdout io.Reader

	// Stderr reads the child's standard error.
	Stderr io.Reader

	// Started is the time the process was started.
	Started time.Time

	cmd *exec.Cmd

	// parent-side file descriptors, closed by Close
	files []*os.File

	done     chan struct{}
	state    atomic.Int32
	exitCode atomic.Int32

	mu      sync.RWMutex
	exitErr error

	waitOnce  sync.Once
	closeOnce sync.Once
	closeErr  error
}

// Start starts the child described by spec.
//
// Canceling ctx kills the child's whole process group.
func Start(ctx context.Context, spec Spec) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd, err := spec.command(ctx)
	if err != nil {
		return nil, err
	}

	p := &Process{
		Command: spec.Command,
		Mode:    spec.Mode,
		cmd:     cmd,
		done:    make(chan struct{}),
	}
	p.state.Store(int32(StateCreated))
	p.exitCode.Store(-1) // -1 indicates not exited

	var childFiles []*os.File
	if spec.Mode == ModePTY {
		childFiles, err = p.attachPTY(spec)
	} else {
		childFiles, err = p.attachPipes()
	}
	if err != nil {
		return nil, errors.NewProcessError("attach streams", err).WithCommand(spec.Command)
	}

	// Cancel fires after Start, so Process is set.
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}

	if err := cmd.Start(); err != nil {
		closeFiles(childFiles)
		closeFiles(p.files)
		return nil, errors.NewProcessError("start process", err).WithCommand(spec.Command)
	}

	// The child holds its own copies now. Closing ours is what lets the
	// parent ends see EOF once the child exits.
	closeFiles(childFiles)

	p.Started = time.Now()
	p.state.Store(int32(StateRunning))

	go p.waitLoop()

	return p, nil
}

// command builds the exec.Cmd for spec without starting it.
func (s Spec) command(ctx context.Context) (*exec.Cmd, error) {
	if s.Command == "" {
		return nil, errors.NewValidationError("command is required").WithField("command")
	}

	var (
		name string
		env  = childEnv(s.Env)
	)
	switch s.Mode {
	case ModeFork:
		if _, ok := lookupHelper(s.Command); !ok {
			return nil, errors.NewProcessError("fork "+s.Command, errors.ErrUnknownHelper).
				WithCommand(s.Command)
		}
		exe, err := os.Executable()
		if err != nil {
			return nil, errors.NewProcessError("resolve executable", err).WithCommand(s.Command)
		}
		name = exe
		env = append(env, helperEnv+"="+s.Command)
	case ModeSpawn, ModePTY:
		name = s.Command
	default:
		return nil, errors.NewValidationError("unknown launch mode").
			WithField("launch.mode").
			WithValue(s.Mode)
	}

	cmd := exec.CommandContext(ctx, name, s.Args...)
	cmd.Dir = s.Dir
	cmd.Env = env
	return cmd, nil
}

// childEnv returns the parent environment without the fork marker, plus extra.
func childEnv(extra []string) []string {
	base := os.Environ()
	env := make([]string, 0, len(base)+len(extra)+1)
	for _, kv := range base {
		if strings.HasPrefix(kv, helperEnv+"=") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, extra...)
}

// attachPipes connects all three streams to OS pipes and puts the child in
// its own process group. It returns the child ends.
func (p *Process) attachPipes() ([]*os.File, error) {
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		closeFiles([]*os.File{stdinR, stdinW})
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeFiles([]*os.File{stdinR, stdinW, stdoutR, stdoutW})
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	p.cmd.Stdin = stdinR
	p.cmd.Stdout = stdoutW
	p.cmd.Stderr = stderrW
	p.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	p.Stdin = stdinW
	p.Stdout = stdoutR
	p.Stderr = stderrR
	p.files = []*os.File{stdinW, stdoutR, stderrR}

	return []*os.File{stdinR, stdoutW, stderrW}, nil
}

// attachPTY connects stdin and stdout to a new pseudo-terminal that becomes
// the controlling terminal of a new session. Stderr stays on a pipe.
func (p *Process) attachPTY(spec Spec) ([]*os.File, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}

	rows, cols := spec.Rows, spec.Cols
	if rows == 0 {
		rows = DefaultRows
	}
	if cols == 0 {
		cols = DefaultCols
	}
	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: rows, Cols: cols}); err != nil {
		closeFiles([]*os.File{ptmx, tty})
		return nil, fmt.Errorf("set pty size: %w", err)
	}

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeFiles([]*os.File{ptmx, tty})
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	p.cmd.Stdin = tty
	p.cmd.Stdout = tty
	p.cmd.Stderr = stderrW
	// Ctty 0 is the child's stdin, which is tty.
	p.cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	p.Stdin = ptmx
	p.Stdout = ptmx
	p.Stderr = stderrR
	p.files = []*os.File{ptmx, stderrR}

	return []*os.File{tty, stderrW}, nil
}

// State returns the current process state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// IsRunning returns true if the process is currently running.
func (p *Process) IsRunning() bool {
	return p.State() == StateRunning
}

// ExitCode returns the process exit code.
// Returns -1 if the process has not exited or was killed by a signal.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// ExitError returns any error from waiting on the process.
func (p *Process) ExitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// Done returns a channel that is closed when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits and returns its exit error.
func (p *Process) Wait() error {
	<-p.done
	return p.ExitError()
}

// PID returns the process ID, or -1 if not started.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// Runtime returns how long the process has been running.
func (p *Process) Runtime() time.Duration {
	if p.Started.IsZero() {
		return 0
	}
	return time.Since(p.Started)
}

// Signal sends sig to the child's process group. Signalling a group that no
// longer exists is not an error.
func (p *Process) Signal(sig syscall.Signal) error {
	pid := p.PID()
	if pid <= 0 {
		return errors.ErrProcessNotStarted
	}

	err := unix.Kill(-pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	if err != nil {
		return errors.NewProcessError("signal "+sig.String(), err).
			WithCommand(p.Command).
			WithPID(pid)
	}
	return nil
}

// Kill sends SIGKILL to the child's process group.
func (p *Process) Kill() error {
	return p.Signal(unix.SIGKILL)
}

// Terminate sends SIGTERM to the child's process group.
func (p *Process) Terminate() error {
	return p.Signal(unix.SIGTERM)
}

// CloseStdin signals end of input. On a pipe the write end is closed; on a
// pty the terminal's EOF character is sent, since closing the master would
// hang up the terminal.
func (p *Process) CloseStdin() error {
	if p.Mode == ModePTY {
		_, err := io.WriteString(p.Stdin, eot)
		return err
	}
	return p.Stdin.Close()
}

// Close closes the parent ends of the child's streams, which unblocks any
// reader. It does not kill the process. Close is idempotent.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		var errs []error
		for _, f := range p.files {
			if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
				errs = append(errs, fmt.Errorf("close %s: %w", f.Name(), err))
			}
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}

// waitLoop waits for the process to exit and updates state.
func (p *Process) waitLoop() {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()

		p.mu.Lock()
		p.exitErr = err
		p.mu.Unlock()

		exitCode := 0
		state := StateExited

		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
				if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
					state = StateKilled
				}
			} else {
				exitCode = -1
			}
		}

		p.exitCode.Store(int32(exitCode))
		p.state.Store(int32(state))
		close(p.done)
	})
}

// IsEndOfStream reports whether err from reading Stdout or Stderr means the
// stream is finished: EOF, a closed file, or EIO from a pty master whose
// terminal has no more writers.
func IsEndOfStream(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, unix.EIO)
}

func closeFiles(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
