package ttytest

import (
	"github.com/Iron-Ham/ttytest/internal/errors"
	"github.com/Iron-Ham/ttytest/internal/launch"
)

// Errors returned by handles and their waits. Compare with errors.Is.
var (
	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = errors.ErrTimeout
	// ErrStderrOutput matches every *StderrError.
	ErrStderrOutput = errors.ErrStderrOutput
	// ErrHandleClosed rejects waits still pending when the handle is closed.
	ErrHandleClosed = errors.ErrHandleClosed
	// ErrUnknownHelper is returned by Start in ModeFork for an unregistered name.
	ErrUnknownHelper = errors.ErrUnknownHelper
	// ErrUnsupportedEncoding is returned by Start for an unknown encoding.
	ErrUnsupportedEncoding = errors.ErrUnsupportedEncoding
)

// TimeoutError rejects a wait whose condition was not met in time.
type TimeoutError = errors.TimeoutError

// StderrError aborts a run under StderrThrow. Its message is the stderr
// chunk itself.
type StderrError = errors.StderrError

// ProcessError reports a failure to start or control the child.
type ProcessError = errors.ProcessError

// HelperFunc is the body of a child started in ModeFork.
type HelperFunc = launch.HelperFunc

// RegisterHelper makes fn startable in ModeFork under name. Register
// helpers before calling RunHelper, typically in TestMain.
func RegisterHelper(name string, fn HelperFunc) {
	launch.RegisterHelper(name, fn)
}

// RunHelper runs the registered helper and exits when the current process
// was started by ModeFork; otherwise it returns immediately.
func RunHelper() {
	launch.RunHelper()
}
