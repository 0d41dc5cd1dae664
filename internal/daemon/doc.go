// Package daemon re-runs the tutorial suite on a schedule and, optionally,
// whenever a tutorial notebook changes on disk.
//
// Runs never overlap: scheduled runs use gocron's singleton mode and share a
// mutex with watcher-triggered runs.
package daemon
