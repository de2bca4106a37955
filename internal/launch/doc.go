// Package launch starts the child processes observed by ttytest and hands
// back their standard streams.
//
// # Modes
//
//   - [ModeFork]: re-executes the current binary and runs a helper function
//     registered with [RegisterHelper]. This is how a test forks a piece of
//     its own code as a child, the same way os/exec's tests use a helper
//     process.
//   - [ModeSpawn]: executes the command directly with plain pipes.
//   - [ModePTY]: attaches stdin and stdout to a pseudo-terminal so the child
//     sees an interactive terminal; stderr remains a separate pipe.
//
// Children run in their own process group, so [Process.Kill] also reaches
// anything they spawned.
//
// # Fork helpers
//
//	func TestMain(m *testing.M) {
//	    launch.RegisterHelper("echo-ready", func(args []string) int {
//	        fmt.Println("ready")
//	        return 0
//	    })
//	    launch.RunHelper() // exits when running as a forked helper
//	    os.Exit(m.Run())
//	}
//
// # Streams
//
// Stdout and Stderr are the parent ends of OS pipes (or the pty master), not
// exec.Cmd pipes, so the exit of the child never discards unread output. The
// caller reads them until EOF; [IsEndOfStream] recognises the errors that
// signal the end of a stream, including EIO from a pty master.
//
// Unix only.
package launch
