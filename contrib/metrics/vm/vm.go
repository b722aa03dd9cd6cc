package vm

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"

	"github.com/arloliu/cqlboot/types"
)

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "cqlboot"
//
// Parameters:
//   - prefix: The prefix to use for all metric names
//
// Returns:
//   - Option: A configuration option
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithMetricsSet sets the metrics set to use.
//
// If provided, the collector registers its metrics with this set instead of
// creating and globally registering a new one. The caller is responsible
// for exposing the set.
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *Collector) {
		c.set = set
	}
}

// Collector implements types.MetricsCollector using VictoriaMetrics.
//
// All metrics are pre-created at initialization time. Safe for concurrent use.
type Collector struct {
	set    *metrics.Set
	prefix string

	connectAttempts      *metrics.Counter
	connectSuccess       *metrics.Counter
	connectErrorsNetwork *metrics.Counter
	connectErrorsAuth    *metrics.Counter
	connectDuration      *metrics.Histogram
	exhausted            *metrics.Counter
	aborted              *metrics.Counter

	bootstrapTotal  *metrics.Counter
	bootstrapErrors *metrics.Counter

	state atomic.Int32
}

// Compile-time assertion that Collector implements types.MetricsCollector.
var _ types.MetricsCollector = (*Collector)(nil)

// New creates a VictoriaMetrics-based metrics collector.
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("chatapp"))
//	manager, _ := cqlboot.NewManager(dialer, target,
//	    cqlboot.WithMetrics(collector),
//	)
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix: "cqlboot",
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.set == nil {
		c.set = metrics.NewSet()
		metrics.RegisterSet(c.set)
	}

	c.initMetrics()

	return c
}

func (c *Collector) initMetrics() {
	p := c.prefix

	c.connectAttempts = c.set.NewCounter(p + "_connect_attempts_total")
	c.connectSuccess = c.set.NewCounter(p + "_connect_success_total")
	c.connectErrorsNetwork = c.set.NewCounter(fmt.Sprintf(`%s_connect_errors_total{class="%s"}`, p, types.ClassConnectivity))
	c.connectErrorsAuth = c.set.NewCounter(fmt.Sprintf(`%s_connect_errors_total{class="%s"}`, p, types.ClassAuthOrKeyspace))
	c.connectDuration = c.set.NewHistogram(p + "_connect_duration_seconds")
	c.exhausted = c.set.NewCounter(p + "_connect_exhausted_total")
	c.aborted = c.set.NewCounter(p + "_connect_aborted_total")

	c.bootstrapTotal = c.set.NewCounter(p + "_bootstrap_total")
	c.bootstrapErrors = c.set.NewCounter(p + "_bootstrap_errors_total")

	c.set.NewGauge(p+"_connection_state", func() float64 {
		return float64(c.state.Load())
	})
}

// Set returns the underlying metrics set.
func (c *Collector) Set() *metrics.Set {
	return c.set
}

// Handler exposes the metrics in Prometheus text format.
//
// Example:
//
//	router.HandleFunc("/metrics", collector.Handler)
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	c.set.WritePrometheus(w)
}

// WritePrometheus writes all metrics in Prometheus format to w.
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

// ----------------------
// Connect Attempts
// ----------------------

// IncConnectAttempt increments the connect attempt counter.
func (c *Collector) IncConnectAttempt() {
	c.connectAttempts.Inc()
}

// IncConnectSuccess increments the successful connect counter.
func (c *Collector) IncConnectSuccess() {
	c.connectSuccess.Inc()
}

// IncConnectError increments the failed dial counter for class.
func (c *Collector) IncConnectError(class types.FailureClass) {
	if class == types.ClassAuthOrKeyspace {
		c.connectErrorsAuth.Inc()
	} else {
		c.connectErrorsNetwork.Inc()
	}
}

// ObserveConnectDuration records how long a Connect call took.
func (c *Collector) ObserveConnectDuration(seconds float64) {
	c.connectDuration.Update(seconds)
}

// IncExhausted increments the exhausted counter.
func (c *Collector) IncExhausted() {
	c.exhausted.Inc()
}

// IncAborted increments the aborted counter.
func (c *Collector) IncAborted() {
	c.aborted.Inc()
}

// ----------------------
// Bootstrap
// ----------------------

// IncBootstrapTotal increments the bootstrap counter.
func (c *Collector) IncBootstrapTotal() {
	c.bootstrapTotal.Inc()
}

// IncBootstrapError increments the failed bootstrap counter.
func (c *Collector) IncBootstrapError() {
	c.bootstrapErrors.Inc()
}

// ----------------------
// State
// ----------------------

// SetConnectionState sets the state gauge to the numeric value of state.
func (c *Collector) SetConnectionState(state types.ConnectionState) {
	c.state.Store(int32(state))
}
