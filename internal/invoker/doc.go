// Package invoker hosts snapshot executions triggered from outside the
// engine.
//
// The Adapter is the error boundary between the engine and its host: it
// runs an executor, swallows any failure, and surfaces the outcome through
// a Reporter (slog, metrics, or both via MultiReporter). The Scheduler
// drives adapters on per-rule tickers derived from each rule's frequency
// descriptor.
package invoker
