// Package metrics provides internal metrics utilities for cqlboot.
package metrics

import "github.com/arloliu/cqlboot/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is configured,
// avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// IncConnectAttempt discards the metric.
func (m *NopMetrics) IncConnectAttempt() {}

// IncConnectSuccess discards the metric.
func (m *NopMetrics) IncConnectSuccess() {}

// IncConnectError discards the metric.
func (m *NopMetrics) IncConnectError(_ types.FailureClass) {}

// ObserveConnectDuration discards the metric.
func (m *NopMetrics) ObserveConnectDuration(_ float64) {}

// IncExhausted discards the metric.
func (m *NopMetrics) IncExhausted() {}

// IncAborted discards the metric.
func (m *NopMetrics) IncAborted() {}

// IncBootstrapTotal discards the metric.
func (m *NopMetrics) IncBootstrapTotal() {}

// IncBootstrapError discards the metric.
func (m *NopMetrics) IncBootstrapError() {}

// SetConnectionState discards the metric.
func (m *NopMetrics) SetConnectionState(_ types.ConnectionState) {}
