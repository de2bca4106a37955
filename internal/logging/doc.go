// Package logging provides structured logging for ttytest runs.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// persistent context attributes. It is the observability sink for captured
// output: when a handle runs with debug enabled, every chunk read from the
// child is logged at DEBUG level before it is recorded or escalated.
//
// # Thread Safety
//
// [Logger] is safe for concurrent use. Child loggers created via With*
// methods share the underlying handler, which serializes writes.
//
// # Basic Usage
//
//	logger := logging.NewLogger(os.Stderr, logging.LevelDebug)
//
//	streamLogger := logger.WithCommand("server").WithStream("stdout")
//	streamLogger.Debug("output chunk", "chunk", "listening on :8080\n")
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"output chunk","command":"server","stream":"stdout","chunk":"listening on :8080\n"}
//
// To keep logs of a test run on disk, use [NewFileLogger], which appends to
// {dir}/debug.log:
//
//	logger, err := logging.NewFileLogger("/tmp/ttytest", logging.LevelInfo)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
// # Testing
//
// Use [NopLogger] to discard all log output.
//
// # Log Levels
//
//   - [LevelDebug]: every captured chunk
//   - [LevelInfo]: process lifecycle (default)
//   - [LevelWarn]: aborted runs
//   - [LevelError]: stream read failures
//
// Use [ValidLevels] to get the list of valid level strings, and [ParseLevel]
// to normalize user-provided level strings.
package logging
