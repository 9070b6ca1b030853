// Package services wires the per-project preprocessing code into runnable
// pipelines and exposes them to the CLI and HTTP layers.
//
// Every project runs the same five steps (load, clean, features, split,
// export) on an operations.Manager. A project only supplies the domain
// functions for each step; steps it has nothing to do in pass the frame
// through unchanged. Finished runs are written to a RunStore.
package services
