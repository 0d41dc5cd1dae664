package metrics

import "time"

// OutcomeLabel enumerates tutorial outcomes for counters.
type OutcomeLabel string

const (
	OutcomePassed OutcomeLabel = "passed"
	OutcomeFailed OutcomeLabel = "failed"
	OutcomeError  OutcomeLabel = "error"
)

// Recorder defines observability hooks for tutorial runs.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveTutorialDuration(tutorial string, d time.Duration)
	IncTutorialOutcome(tutorial string, outcome OutcomeLabel)
	IncRegenerated(tutorial string)
	SetLastRun(tutorial string, t time.Time)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)    {}
func (NoopRecorder) ObserveTutorialDuration(string, time.Duration) {}
func (NoopRecorder) IncTutorialOutcome(string, OutcomeLabel)       {}
func (NoopRecorder) IncRegenerated(string)                         {}
func (NoopRecorder) SetLastRun(string, time.Time)                  {}
