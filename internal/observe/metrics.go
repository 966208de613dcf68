// Package observe provides observability primitives for the evaluation
// pipeline: OpenTelemetry metric instruments and the Prometheus exporter
// bridge behind [InitProvider].
//
// Metrics are recorded through the OpenTelemetry Metrics API. A
// package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "orato"

// Metrics holds all OpenTelemetry metric instruments for the pipeline.
// All fields are safe for concurrent use.
type Metrics struct {
	// EvaluationDuration tracks end-to-end evaluation latency.
	EvaluationDuration metric.Float64Histogram

	// TranscriptionDuration tracks ASR latency per request.
	TranscriptionDuration metric.Float64Histogram

	// AnalyzerDuration tracks per-analyzer latency. Use with attribute:
	//   attribute.String("analyzer", ...)
	AnalyzerDuration metric.Float64Histogram

	// AnalyzerResults counts analyzer outcomes. Use with attributes:
	//   attribute.String("analyzer", ...), attribute.String("status", ...)
	AnalyzerResults metric.Int64Counter

	// Evaluations counts completed evaluations by status (ok, input_error,
	// transcription_error, cancelled).
	Evaluations metric.Int64Counter

	// ActiveEvaluations tracks the number of requests currently inside the
	// pipeline.
	ActiveEvaluations metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries in seconds. Analyzer
// runs sit in the sub-second range; whole evaluations with transcription
// reach tens of seconds.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation
// fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.EvaluationDuration, err = m.Float64Histogram("orato.evaluation.duration",
		metric.WithDescription("End-to-end latency of a speech evaluation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscriptionDuration, err = m.Float64Histogram("orato.transcription.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AnalyzerDuration, err = m.Float64Histogram("orato.analyzer.duration",
		metric.WithDescription("Latency of a single analyzer run, by analyzer id."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AnalyzerResults, err = m.Int64Counter("orato.analyzer.results",
		metric.WithDescription("Analyzer outcomes by analyzer id and status."),
	); err != nil {
		return nil, err
	}
	if met.Evaluations, err = m.Int64Counter("orato.evaluations",
		metric.WithDescription("Completed evaluations by status."),
	); err != nil {
		return nil, err
	}
	if met.ActiveEvaluations, err = m.Int64UpDownCounter("orato.active_evaluations",
		metric.WithDescription("Number of evaluations currently in flight."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen
// with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordAnalyzer records one analyzer run with its duration and outcome.
func (m *Metrics) RecordAnalyzer(ctx context.Context, analyzer, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("analyzer", analyzer),
		attribute.String("status", status),
	)
	m.AnalyzerDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("analyzer", analyzer)))
	m.AnalyzerResults.Add(ctx, 1, attrs)
}

// RecordEvaluation records one finished evaluation.
func (m *Metrics) RecordEvaluation(ctx context.Context, status string, seconds float64) {
	m.EvaluationDuration.Record(ctx, seconds)
	m.Evaluations.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)))
}
