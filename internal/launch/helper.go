package launch

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// helperEnv carries the name of the helper a forked child must run.
const helperEnv = "TTYTEST_HELPER"

// HelperFunc is the body of a forked child. args are the arguments given at
// launch; the return value is the child's exit code.
type HelperFunc func(args []string) int

var (
	helpersMu sync.RWMutex
	helpers   = make(map[string]HelperFunc)
)

// RegisterHelper makes fn launchable in ModeFork under name. It panics if
// name is empty, fn is nil, or name is already registered.
func RegisterHelper(name string, fn HelperFunc) {
	helpersMu.Lock()
	defer helpersMu.Unlock()

	if name == "" {
		panic("launch: RegisterHelper with empty name")
	}
	if fn == nil {
		panic("launch: RegisterHelper with nil func")
	}
	if _, dup := helpers[name]; dup {
		panic("launch: RegisterHelper called twice for " + name)
	}
	helpers[name] = fn
}

// Helpers returns the sorted names of all registered helpers.
func Helpers() []string {
	helpersMu.RLock()
	defer helpersMu.RUnlock()

	names := make([]string, 0, len(helpers))
	for name := range helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupHelper(name string) (HelperFunc, bool) {
	helpersMu.RLock()
	defer helpersMu.RUnlock()

	fn, ok := helpers[name]
	return fn, ok
}

// RunHelper runs the helper this process was forked for and exits with its
// code. In any other process it returns immediately. Call it from TestMain
// (or main) after registering helpers and before anything else.
func RunHelper() {
	name, ok := os.LookupEnv(helperEnv)
	if !ok {
		return
	}

	fn, found := lookupHelper(name)
	if !found {
		fmt.Fprintf(os.Stderr, "ttytest: no helper registered as %q\n", name)
		os.Exit(2)
	}
	os.Exit(fn(os.Args[1:]))
}
