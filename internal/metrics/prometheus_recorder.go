package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "nbharness"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	registry         *prom.Registry
	stageDuration    *prom.HistogramVec
	tutorialDuration *prom.HistogramVec
	outcomes         *prom.CounterVec
	regenerated      *prom.CounterVec
	lastRun          *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the harness metrics on reg,
// or on a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual run stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.tutorialDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "tutorial_duration_seconds",
			Help:      "Total duration of one tutorial run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"tutorial"})
		pr.outcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "tutorial_outcomes_total",
			Help:      "Tutorial run outcomes",
		}, []string{"tutorial", "outcome"})
		pr.regenerated = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "tutorial_regenerated_total",
			Help:      "Times a tutorial was rewritten with fresh outputs",
		}, []string{"tutorial"})
		pr.lastRun = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "tutorial_last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run",
		}, []string{"tutorial"})
		reg.MustRegister(pr.stageDuration, pr.tutorialDuration, pr.outcomes, pr.regenerated, pr.lastRun)
	})
	return pr
}

// Registry returns the registry the metrics live on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveTutorialDuration(tutorial string, d time.Duration) {
	if p == nil || p.tutorialDuration == nil {
		return
	}
	p.tutorialDuration.WithLabelValues(tutorial).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTutorialOutcome(tutorial string, outcome OutcomeLabel) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(tutorial, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncRegenerated(tutorial string) {
	if p == nil || p.regenerated == nil {
		return
	}
	p.regenerated.WithLabelValues(tutorial).Inc()
}

func (p *PrometheusRecorder) SetLastRun(tutorial string, t time.Time) {
	if p == nil || p.lastRun == nil {
		return
	}
	p.lastRun.WithLabelValues(tutorial).Set(float64(t.Unix()))
}

// WriteTextfile writes the current metrics to path in the text exposition
// format, creating the parent directory when needed.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
