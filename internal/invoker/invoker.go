package invoker

import (
	"context"
	"log/slog"
	"time"
)

// Runner is the slice of the executor the adapter needs.
type Runner interface {
	Run(ctx context.Context) (int, error)
	RuleID() string
	DryRun() bool
}

// Reporter is the host's observability channel for invocation outcomes.
// A failed run is visible only through this channel, never as a raised
// error.
type Reporter interface {
	RunCompleted(ruleID string, records int, dryRun bool, elapsed time.Duration)
	RunFailed(ruleID string, err error, elapsed time.Duration)
}

// Adapter wraps an executor for externally triggered invocation. ExecuteNow
// catches every failure and downgrades it to a reported outcome: one rule's
// bad run must never abort the host's scheduling loop.
type Adapter struct {
	runner   Runner
	reporter Reporter
}

// NewAdapter wraps a runner with a reporter. A nil reporter falls back to
// logging through slog.Default().
func NewAdapter(runner Runner, reporter Reporter) *Adapter {
	if reporter == nil {
		reporter = &LogReporter{Logger: slog.Default()}
	}
	return &Adapter{runner: runner, reporter: reporter}
}

// ExecuteNow runs the wrapped executor once. It never returns an error and
// never panics out of a run; failures are surfaced through the reporter
// only.
func (a *Adapter) ExecuteNow(ctx context.Context) {
	start := time.Now()

	records, err := a.safeRun(ctx)
	elapsed := time.Since(start)

	if err != nil {
		a.reporter.RunFailed(a.runner.RuleID(), err, elapsed)
		return
	}
	a.reporter.RunCompleted(a.runner.RuleID(), records, a.runner.DryRun(), elapsed)
}

// safeRun executes the runner, converting a panic from the dynamic
// translation path into an error outcome.
func (a *Adapter) safeRun(ctx context.Context) (records int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return a.runner.Run(ctx)
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return "snapshot run panicked"
}

// LogReporter reports invocation outcomes through slog. A completed run with
// zero records is still reported: silent zero-result runs leave operators
// guessing whether the rule matched nothing or never ran.
type LogReporter struct {
	Logger *slog.Logger
}

func (r *LogReporter) RunCompleted(ruleID string, records int, dryRun bool, elapsed time.Duration) {
	r.Logger.Info("snapshot run completed",
		"rule", ruleID, "records", records, "dry_run", dryRun, "elapsed", elapsed)
}

func (r *LogReporter) RunFailed(ruleID string, err error, elapsed time.Duration) {
	r.Logger.Error("snapshot run failed",
		"rule", ruleID, "error", err, "elapsed", elapsed)
}

// MultiReporter fans one outcome out to several reporters (e.g. log +
// metrics).
type MultiReporter []Reporter

func (mr MultiReporter) RunCompleted(ruleID string, records int, dryRun bool, elapsed time.Duration) {
	for _, r := range mr {
		r.RunCompleted(ruleID, records, dryRun, elapsed)
	}
}

func (mr MultiReporter) RunFailed(ruleID string, err error, elapsed time.Duration) {
	for _, r := range mr {
		r.RunFailed(ruleID, err, elapsed)
	}
}
