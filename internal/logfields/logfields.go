package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyTutorial   = "tutorial"
	KeyStage      = "stage"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyCells      = "cells"
	KeyPath       = "path"
	KeyNotebook   = "notebook"
	KeyKernel     = "kernel"
	KeyVersion    = "version"
	KeySchedule   = "schedule_name"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Tutorial(name string) slog.Attr  { return slog.String(KeyTutorial, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Cells(n int) slog.Attr           { return slog.Int(KeyCells, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Notebook(p string) slog.Attr     { return slog.String(KeyNotebook, p) }
func Kernel(k string) slog.Attr       { return slog.String(KeyKernel, k) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
