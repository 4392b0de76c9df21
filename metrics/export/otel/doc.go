// Package otel mirrors sessiongate engine metrics into OpenTelemetry.
//
// [NewExporter] registers an Int64ObservableCounter per engine counter and an
// Int64ObservableGauge per latency bucket. The caller owns the MeterProvider.
package otel
