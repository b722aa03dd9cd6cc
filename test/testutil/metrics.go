package testutil

import (
	"sync"
	"sync/atomic"

	"github.com/arloliu/cqlboot/types"
)

// TestMetricsCollector is a test implementation of types.MetricsCollector
// that tracks method calls for assertions.
type TestMetricsCollector struct {
	mu sync.RWMutex

	ConnectErrors map[types.FailureClass]int64
	Durations     []float64
	States        []types.ConnectionState

	connectAttempts atomic.Int64
	connectSuccess  atomic.Int64
	exhausted       atomic.Int64
	aborted         atomic.Int64
	bootstrapTotal  atomic.Int64
	bootstrapErrors atomic.Int64
}

var _ types.MetricsCollector = (*TestMetricsCollector)(nil)

// NewTestMetricsCollector creates a new test metrics collector.
func NewTestMetricsCollector() *TestMetricsCollector {
	return &TestMetricsCollector{
		ConnectErrors: make(map[types.FailureClass]int64),
	}
}

func (m *TestMetricsCollector) IncConnectAttempt() { m.connectAttempts.Add(1) }
func (m *TestMetricsCollector) IncConnectSuccess() { m.connectSuccess.Add(1) }
func (m *TestMetricsCollector) IncExhausted()      { m.exhausted.Add(1) }
func (m *TestMetricsCollector) IncAborted()        { m.aborted.Add(1) }
func (m *TestMetricsCollector) IncBootstrapTotal() { m.bootstrapTotal.Add(1) }
func (m *TestMetricsCollector) IncBootstrapError() { m.bootstrapErrors.Add(1) }

// IncConnectError records a failed dial.
func (m *TestMetricsCollector) IncConnectError(class types.FailureClass) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ConnectErrors[class]++
}

// ObserveConnectDuration records a connect sequence duration.
func (m *TestMetricsCollector) ObserveConnectDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Durations = append(m.Durations, seconds)
}

// SetConnectionState records a state change.
func (m *TestMetricsCollector) SetConnectionState(state types.ConnectionState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.States = append(m.States, state)
}

func (m *TestMetricsCollector) ConnectAttempts() int64 { return m.connectAttempts.Load() }
func (m *TestMetricsCollector) ConnectSuccess() int64  { return m.connectSuccess.Load() }
func (m *TestMetricsCollector) Exhausted() int64       { return m.exhausted.Load() }
func (m *TestMetricsCollector) Aborted() int64         { return m.aborted.Load() }
func (m *TestMetricsCollector) BootstrapTotal() int64  { return m.bootstrapTotal.Load() }
func (m *TestMetricsCollector) BootstrapErrors() int64 { return m.bootstrapErrors.Load() }

// ConnectErrorCount returns the number of failed dials of the given class.
func (m *TestMetricsCollector) ConnectErrorCount(class types.FailureClass) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.ConnectErrors[class]
}

// LastState returns the most recent state, or Disconnected if none was recorded.
func (m *TestMetricsCollector) LastState() types.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.States) == 0 {
		return types.Disconnected
	}

	return m.States[len(m.States)-1]
}
