package script

import (
	"context"
	"regexp"
	"time"

	"github.com/Iron-Ham/ttytest"
	"github.com/Iron-Ham/ttytest/internal/logging"
)

// Target is the part of *ttytest.Handle a script drives.
type Target interface {
	WaitFor(target string, opts ...ttytest.WaitOption) *ttytest.Future
	WaitForPattern(re *regexp.Regexp, opts ...ttytest.WaitOption) *ttytest.Future
	Next(opts ...ttytest.WaitOption) *ttytest.Future
	Send(input string) error
	CloseStdin() error
	Wait(d time.Duration)
	Stdout() ttytest.View
	Stderr() ttytest.View
}

// Result is the outcome of one step.
type Result struct {
	Index   int
	Step    Step
	Chunk   string // the chunk a wait resolved with
	Err     error
	Elapsed time.Duration
}

// OK reports whether the step succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Runner executes scripts against a target.
type Runner struct {
	logger *logging.Logger
	report func(Result)
}

// NewRunner creates a Runner. report, if non-nil, is called after each step.
func NewRunner(logger *logging.Logger, report func(Result)) *Runner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Runner{logger: logger, report: report}
}

// Run executes the steps in order and stops at the first failure, whose
// error it returns. Canceling ctx abandons the current wait.
func (r *Runner) Run(ctx context.Context, target Target, s *Script) ([]Result, error) {
	results := make([]Result, 0, len(s.Steps))

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return results, context.Cause(ctx)
		}

		start := time.Now()
		chunk, err := r.runStep(ctx, target, step)
		res := Result{
			Index:   i,
			Step:    step,
			Chunk:   chunk,
			Err:     err,
			Elapsed: time.Since(start),
		}
		results = append(results, res)

		if err != nil {
			r.logger.Warn("step failed", "index", i, "step", step.String(), "error", err.Error())
		} else {
			r.logger.Info("step passed", "index", i, "step", step.String(), "elapsed", res.Elapsed.String())
		}
		if r.report != nil {
			r.report(res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (r *Runner) runStep(ctx context.Context, target Target, step Step) (string, error) {
	var opts []ttytest.WaitOption
	if step.stream() == StreamStderr {
		opts = append(opts, ttytest.OnStream(target.Stderr()))
	}
	if step.OnlyNew {
		opts = append(opts, ttytest.OnlyNew())
	}
	if step.IgnoreANSI {
		opts = append(opts, ttytest.IgnoreANSI())
	}
	if step.Timeout > 0 {
		opts = append(opts, ttytest.Within(step.Timeout.Std()))
	}

	switch step.Action() {
	case "wait_for":
		return target.WaitFor(step.WaitFor, opts...).Await(ctx)
	case "pattern":
		re := step.re
		if re == nil {
			var err error
			if re, err = regexp.Compile(step.Pattern); err != nil {
				return "", err
			}
		}
		return target.WaitForPattern(re, opts...).Await(ctx)
	case "next":
		return target.Next(opts...).Await(ctx)
	case "send":
		return "", target.Send(step.Send)
	case "sleep":
		target.Wait(step.Sleep.Std())
		return "", nil
	case "close_stdin":
		return "", target.CloseStdin()
	default:
		return "", nil
	}
}
