// Package operations runs preprocessing pipelines.
//
// A pipeline is a Registry of Steps for one project. Manager orders the
// steps by their dependencies, runs them one after another with a per-step
// timeout and retries for retryable errors, and tracks progress in a
// RunState. Steps hand data to each other through RunState.Context.
//
// Failed steps cause every step downstream of them to be skipped. With
// Config.ContinueOnError, independent steps still run and the first error
// is returned at the end.
package operations
