// Package workspace manages the staging directories a regression run uses
// for its injected notebook and executor output.
//
// Each run gets its own uniquely named directory which is removed again by
// Cleanup, whatever the outcome of the run.
package workspace
