// Package metrics records tutorial regression metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics
// collection never needs nil checks:
//
//	h := harness.New(dir, checker, harness.WithRecorder(metrics.NoopRecorder{}))
//
// PrometheusRecorder registers its collectors on a private registry. The
// CLI runs once and exits, so instead of serving /metrics the registry is
// written in the node_exporter textfile format by WriteTextfile.
package metrics
