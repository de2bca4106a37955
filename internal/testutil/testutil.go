// Package testutil provides helpers shared by the process tests.
package testutil

import (
	"bytes"
	"os/exec"
	"sync"
	"testing"

	"github.com/creack/pty"
)

// SkipIfMissing skips the test if any of the named executables is not
// installed.
func SkipIfMissing(t *testing.T, names ...string) {
	t.Helper()

	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not found in PATH, skipping test", name)
		}
	}
}

// SkipIfNoPTY skips the test if no pseudo-terminal can be allocated, as in
// some containers without /dev/ptmx.
func SkipIfNoPTY(t *testing.T) {
	t.Helper()

	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pseudo-terminals unavailable (%v), skipping test", err)
	}
	_ = tty.Close()
	_ = ptmx.Close()
}

// LockedBuffer is a bytes.Buffer safe for concurrent writers, such as a
// logger fed from several goroutines.
type LockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write appends p to the buffer.
func (b *LockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns the buffered content.
func (b *LockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
