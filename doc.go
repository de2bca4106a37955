// Package ttytest drives a child process from a test and records what it
// writes, so the test can wait for specific output before moving on.
//
// Each chunk read from the child's stdout or stderr is appended, in arrival
// order, to a per-stream history. Waits are futures that resolve with the
// first chunk satisfying a condition, or reject after a timeout:
//
//	h, err := ttytest.Start(ctx, "server", ttytest.Options{Mode: ttytest.ModeSpawn})
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer h.Close()
//
//	chunk, err := h.WaitFor("listening").Result()
//	if err != nil {
//	    t.Fatal(err) // *ttytest.TimeoutError, or the run's failure
//	}
//
//	next := h.Next()
//	_ = h.Send("status\n")
//	reply, err := next.Result()
//
// Output read from a pseudo-terminal (ModePTY) often carries color and
// cursor escape sequences; pass IgnoreANSI to match against the visible text.
//
// # Stderr
//
// Under [StderrThrow] (the default) the first chunk on stderr aborts the
// run: the child is killed, [Handle.Err] returns a [*StderrError] whose
// message is the chunk, and every pending or later wait rejects with it.
// Under [StderrCollect] stderr chunks are recorded like stdout ones and can
// be waited on with [OnStream].
//
// # Fork mode
//
// The default [ModeFork] starts a function of the test binary itself as the
// child. Register it and dispatch from TestMain:
//
//	func TestMain(m *testing.M) {
//	    ttytest.RegisterHelper("greeter", func(args []string) int {
//	        fmt.Println("hello")
//	        return 0
//	    })
//	    ttytest.RunHelper()
//	    os.Exit(m.Run())
//	}
//
// # Environment
//
// [OptionsFromEnv] reads TTYTEST_* variables (TTYTEST_STDERR_MODE,
// TTYTEST_LOGGING_DEBUG, TTYTEST_WAIT_TIMEOUT_MS, ...) so CI can change the
// behavior of a suite without code changes.
package ttytest
