package testutil

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/arloliu/cqlboot/adapter/cql"
)

// SlowDialer wraps a Dialer and delays every dial, honoring the context.
// It is useful for exercising dial timeouts against a real or fake cluster.
type SlowDialer struct {
	dialer cql.Dialer
	delay  atomic.Int64
}

// Compile-time assertion that SlowDialer implements cql.Dialer.
var _ cql.Dialer = (*SlowDialer)(nil)

// NewSlowDialer wraps dialer with a fixed delay.
func NewSlowDialer(dialer cql.Dialer, delay time.Duration) *SlowDialer {
	d := &SlowDialer{dialer: dialer}
	d.SetDelay(delay)

	return d
}

// SetDelay changes the delay of subsequent dials.
func (d *SlowDialer) SetDelay(delay time.Duration) {
	d.delay.Store(int64(delay))
}

// Dial waits for the delay, then dials through the wrapped dialer.
func (d *SlowDialer) Dial(ctx context.Context, cfg cql.DialConfig) (cql.Session, error) {
	timer := time.NewTimer(time.Duration(d.delay.Load()))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return d.dialer.Dial(ctx, cfg)
}
