// Package app wires configuration, logging, telemetry, the run store and the
// preprocessing services into one Application, and serves them over HTTP.
//
// # Initialization Flow
//
//	1. Resolve and create configured directories
//	2. Initialize OpenTelemetry and the run tracer
//	3. Open the sqlite run store
//	4. Build the pipeline manager and register every project
//	5. Set up HTTP handlers and middleware
//
// The CLI uses the same Application for one-shot runs, so a run started from
// the command line and one started over HTTP land in the same run log.
package app
