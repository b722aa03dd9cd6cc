package types

// MetricsCollector defines methods for collecting connection manager metrics.
//
// Implementations should be thread-safe as methods may be called concurrently.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	import vmmetrics "github.com/arloliu/cqlboot/contrib/metrics/vm"
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("chatapp"))
//	manager, _ := cqlboot.NewManager(dialer, target,
//	    cqlboot.WithMetrics(collector),
//	)
//
//	// Expose metrics via HTTP
//	http.HandleFunc("/metrics", collector.Handler)
type MetricsCollector interface {
	// ----------------------
	// Connect Attempts
	// ----------------------

	// IncConnectAttempt increments the connect attempt counter.
	IncConnectAttempt()

	// IncConnectSuccess increments the successful connect counter.
	IncConnectSuccess()

	// IncConnectError increments the failed attempt counter for a failure class.
	IncConnectError(class FailureClass)

	// ObserveConnectDuration records how long a whole Connect call took, in seconds.
	ObserveConnectDuration(seconds float64)

	// IncExhausted increments the counter of Connect calls that ran out of attempts.
	IncExhausted()

	// IncAborted increments the counter of cancelled Connect calls.
	IncAborted()

	// ----------------------
	// Bootstrap
	// ----------------------

	// IncBootstrapTotal increments the counter of bootstrap sequences started.
	IncBootstrapTotal()

	// IncBootstrapError increments the counter of failed bootstrap sequences.
	IncBootstrapError()

	// ----------------------
	// State
	// ----------------------

	// SetConnectionState sets the current state gauge.
	SetConnectionState(state ConnectionState)
}
