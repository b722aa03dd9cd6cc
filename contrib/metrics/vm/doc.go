// Package vm provides a VictoriaMetrics-based implementation of the MetricsCollector interface.
//
// This package uses github.com/VictoriaMetrics/metrics for lightweight,
// Prometheus-compatible metrics collection.
//
// # Basic Usage
//
// Create a collector with the default prefix "cqlboot":
//
//	collector := vm.New()
//	manager, _ := cqlboot.NewManager(dialer, target,
//	    cqlboot.WithMetrics(collector),
//	)
//
// # Exposing Metrics
//
//	router.HandleFunc("/metrics", collector.Handler)
//
// # Metrics Provided
//
// Connect:
//   - {prefix}_connect_attempts_total - Counter of attempts, one per dial sequence
//   - {prefix}_connect_success_total - Counter of attempts that produced a session
//   - {prefix}_connect_errors_total{class} - Counter of failed dials by failure class
//   - {prefix}_connect_duration_seconds - Histogram of Connect call latencies
//   - {prefix}_connect_exhausted_total - Counter of Connect calls out of attempts
//   - {prefix}_connect_aborted_total - Counter of cancelled Connect calls
//
// Bootstrap:
//   - {prefix}_bootstrap_total - Counter of provisioning sequences started
//   - {prefix}_bootstrap_errors_total - Counter of failed provisioning sequences
//
// State:
//   - {prefix}_connection_state - Gauge (0=disconnected, 1=connecting,
//     2=connected, 3=bootstrapping, 4=failed)
package vm
