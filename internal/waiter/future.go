package waiter

import (
	"context"
)

// Future is the single-resolution result of one wait. It settles exactly
// once, with either a chunk or an error.
type Future struct {
	done   chan struct{}
	cancel context.CancelCauseFunc

	// Written once by the waiter goroutine before done is closed.
	chunk string
	err   error
}

func newFuture(cancel context.CancelCauseFunc) *Future {
	return &Future{
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// Done returns a channel that is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the future settles and returns its outcome.
func (f *Future) Result() (string, error) {
	<-f.done
	return f.chunk, f.err
}

// Await is like Result but gives up when ctx is done. Giving up cancels the
// wait, which then settles with ctx's error.
func (f *Future) Await(ctx context.Context) (string, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		f.cancel(context.Cause(ctx))
		<-f.done
	}
	return f.chunk, f.err
}

// Cancel stops the wait. A pending future settles with cause, or with
// context.Canceled when cause is nil. Cancel on a settled future is a no-op.
func (f *Future) Cancel(cause error) {
	f.cancel(cause)
}

// Settled reports whether the future has resolved or rejected.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Rejected returns a future that has already settled with err.
func Rejected(err error) *Future {
	f := newFuture(func(error) {})
	f.err = err
	close(f.done)
	return f
}
