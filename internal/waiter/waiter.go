// Package waiter resolves futures when the output history of a process
// satisfies a condition, or rejects them when a timeout elapses first.
//
// Waiters are push-driven: each one subscribes to its [history.View] and is
// woken on every append, then scans the chunks that arrived since it last
// looked. There is no poll interval, so a match is observed as soon as the
// chunk is recorded.
//
// Every waiter runs in its own goroutine and settles exactly once. On
// settlement it stops its timer and unsubscribes, whatever the outcome.
package waiter

import (
	"context"
	"time"

	"github.com/Iron-Ham/ttytest/internal/errors"
	"github.com/Iron-Ham/ttytest/internal/history"
)

// DefaultTimeout bounds a wait when no timeout is given.
const DefaultTimeout = time.Second

// Config holds the per-wait settings for WaitFor.
type Config struct {
	// OnlyNew ignores every chunk already recorded when the wait starts.
	// If the buffer never grows the wait can only time out.
	OnlyNew bool

	// Timeout is the maximum wait; zero or negative means DefaultTimeout.
	Timeout time.Duration
}

// WaitFor starts a wait that resolves with the first chunk satisfying m.
//
// Without OnlyNew the most recent chunk already in the buffer is a
// candidate, followed by every chunk appended later, in arrival order. The
// future resolves with the full chunk, not just the matched part. If no
// chunk matches before the timeout, it rejects with *errors.TimeoutError
// naming the target, the timeout and the last chunk observed. Cancelling
// ctx rejects it with context.Cause(ctx).
func WaitFor(ctx context.Context, src history.View, m Matcher, cfg Config) *Future {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return watch(ctx, src, m, !cfg.OnlyNew, timeout, func(last string, ok bool) error {
		err := errors.NewTimeoutError("wait for "+src.Name(), timeout).WithTarget(m.String())
		if ok {
			err = err.WithLastOutput(last)
		}
		return err
	})
}

// Next starts a wait that resolves with the first chunk appended after the
// call, whatever its content. Concurrent Next calls on the same buffer all
// resolve with the same chunk. It rejects with *errors.TimeoutError when the
// buffer has not grown before the timeout.
func Next(ctx context.Context, src history.View, timeout time.Duration) *Future {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return watch(ctx, src, Any(), false, timeout, func(string, bool) error {
		return errors.NewTimeoutError("next chunk on "+src.Name(), timeout)
	})
}

// watch runs the wait loop. includeLast makes the most recent chunk present
// at subscription time a candidate.
func watch(
	parent context.Context,
	src history.View,
	m Matcher,
	includeLast bool,
	timeout time.Duration,
	onTimeout func(last string, ok bool) error,
) *Future {
	ctx, cancel := context.WithCancelCause(parent)
	f := newFuture(cancel)

	// The cursor is fixed here, before returning, so "new" is relative to
	// the moment of the call rather than to goroutine scheduling.
	notify, cursor, unsubscribe := src.Subscribe()
	if includeLast && cursor > 0 {
		cursor--
	}

	timer := time.NewTimer(timeout)

	go func() {
		defer close(f.done)
		defer cancel(nil)
		defer unsubscribe()
		defer timer.Stop()

		for {
			chunks := src.Since(cursor)
			cursor += len(chunks)
			for _, chunk := range chunks {
				if m.Match(chunk) {
					f.chunk = chunk
					return
				}
			}

			select {
			case <-notify:
			case <-timer.C:
				// Appends racing the timer still count.
				for _, chunk := range src.Since(cursor) {
					if m.Match(chunk) {
						f.chunk = chunk
						return
					}
				}
				f.err = onTimeout(src.Last())
				return
			case <-ctx.Done():
				f.err = context.Cause(ctx)
				return
			}
		}
	}()

	return f
}
