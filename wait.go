package ttytest

import (
	"context"
	"regexp"
	"time"

	"github.com/Iron-Ham/ttytest/internal/history"
	"github.com/Iron-Ham/ttytest/internal/waiter"
)

// View is a read-only view of one stream's output history.
type View = history.View

// Future is the single-resolution result of a wait.
type Future = waiter.Future

// Matcher decides whether a chunk satisfies a wait.
type Matcher = waiter.Matcher

// Contains matches chunks containing s. Matching is case-sensitive.
func Contains(s string) Matcher {
	return waiter.Contains(s)
}

// Pattern matches chunks in which re finds a match.
func Pattern(re *regexp.Regexp) Matcher {
	return waiter.Pattern(re)
}

type waitConfig struct {
	stream     View
	onlyNew    bool
	ignoreANSI bool
	timeout    time.Duration
}

// WaitOption customizes a single wait.
type WaitOption func(*waitConfig)

// OnStream makes the wait watch v instead of Stdout.
func OnStream(v View) WaitOption {
	return func(c *waitConfig) {
		c.stream = v
	}
}

// OnlyNew ignores chunks recorded before the wait starts. Without it the
// most recent chunk already recorded is also a candidate.
func OnlyNew() WaitOption {
	return func(c *waitConfig) {
		c.onlyNew = true
	}
}

// IgnoreANSI matches against chunks with terminal escape sequences removed.
// The resolved chunk is still the raw one.
func IgnoreANSI() WaitOption {
	return func(c *waitConfig) {
		c.ignoreANSI = true
	}
}

// Within overrides the handle's timeout for one wait.
func Within(d time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.timeout = d
	}
}

func (h *Handle) resolveWait(opts []WaitOption) waitConfig {
	cfg := waitConfig{
		stream:  h.stdout,
		timeout: h.opts.Timeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.stream == nil {
		cfg.stream = h.stdout
	}
	return cfg
}

// WaitFor resolves with the first chunk on Stdout containing target.
//
// The most recent chunk already recorded counts, unless OnlyNew is given,
// and so does every chunk recorded afterwards. The future resolves with the
// whole chunk. It rejects with a *TimeoutError if nothing matches in time,
// and with the run's failure if the run is aborted first.
func (h *Handle) WaitFor(target string, opts ...WaitOption) *Future {
	return h.WaitForMatch(waiter.Contains(target), opts...)
}

// WaitForPattern is WaitFor with a regular expression.
func (h *Handle) WaitForPattern(re *regexp.Regexp, opts ...WaitOption) *Future {
	return h.WaitForMatch(waiter.Pattern(re), opts...)
}

// WaitForMatch is WaitFor with an arbitrary Matcher.
func (h *Handle) WaitForMatch(m Matcher, opts ...WaitOption) *Future {
	cfg := h.resolveWait(opts)
	if err := h.stopped(); err != nil {
		return waiter.Rejected(err)
	}
	if cfg.ignoreANSI {
		m = waiter.Plain(m)
	}
	return waiter.WaitFor(h.ctx, cfg.stream, m, waiter.Config{
		OnlyNew: cfg.onlyNew,
		Timeout: cfg.timeout,
	})
}

// Next resolves with the first chunk recorded on Stdout after the call,
// whatever its content. OnlyNew has no effect; Next never looks back.
func (h *Handle) Next(opts ...WaitOption) *Future {
	cfg := h.resolveWait(opts)
	if err := h.stopped(); err != nil {
		return waiter.Rejected(err)
	}
	return waiter.Next(h.ctx, cfg.stream, cfg.timeout)
}

// stopped returns the reason the run ended early, if it did.
func (h *Handle) stopped() error {
	if h.ctx.Err() == nil {
		return nil
	}
	return context.Cause(h.ctx)
}

// Wait pauses for d, or for the handle's default delay when d is zero. It
// never fails and does not depend on the child.
func (h *Handle) Wait(d time.Duration) {
	if d <= 0 {
		d = h.opts.Delay
	}
	<-Wait(d)
}

// Wait returns a channel that receives once d has elapsed, or DefaultDelay
// when d is zero.
func Wait(d time.Duration) <-chan time.Time {
	if d <= 0 {
		d = DefaultDelay
	}
	return time.After(d)
}
