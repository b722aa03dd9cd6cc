package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/grafana/dskit/backoff"
)

const (
	// DefaultMaxAttempts is the number of connect attempts made before giving up.
	DefaultMaxAttempts = 5
	// DefaultRetryDelay is the fixed delay between connect attempts.
	DefaultRetryDelay = 2 * time.Second
)

// RetryPolicy controls the outer connect loop.
//
// MaxAttempts counts every attempt including the first, so a policy with
// MaxAttempts 3 dials at most three times and sleeps twice. When MaxDelay is
// zero or not greater than MinDelay the delay is fixed at MinDelay. Otherwise
// the delay grows exponentially with jitter from MinDelay up to MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns a fixed-delay policy with DefaultMaxAttempts
// attempts spaced DefaultRetryDelay apart.
func DefaultRetryPolicy() RetryPolicy {
	return FixedDelay(DefaultMaxAttempts, DefaultRetryDelay)
}

// FixedDelay returns a policy that sleeps exactly delay between attempts.
//
// Parameters:
//   - attempts: Total number of attempts (must be >= 1)
//   - delay: Pause between consecutive attempts
//
// Returns:
//   - RetryPolicy: The configured policy
func FixedDelay(attempts int, delay time.Duration) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, MinDelay: delay, MaxDelay: delay}
}

// Exponential returns a policy whose delay doubles from minDelay up to
// maxDelay, with jitter inside each step. minDelay must be positive.
//
// Example:
//
//	p := policy.Exponential(10, 500*time.Millisecond, 30*time.Second)
func Exponential(attempts int, minDelay, maxDelay time.Duration) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, MinDelay: minDelay, MaxDelay: maxDelay}
}

// Fixed reports whether every delay equals MinDelay.
func (p RetryPolicy) Fixed() bool {
	return p.MaxDelay <= p.MinDelay
}

// Validate checks the policy for obviously invalid values.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.MinDelay < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("retry delays must not be negative (min %s, max %s)", p.MinDelay, p.MaxDelay)
	}
	// the backoff doubles MinDelay, so zero would never grow
	if p.MinDelay == 0 && p.MaxDelay > 0 {
		return fmt.Errorf("exponential retry needs a positive min delay (max %s)", p.MaxDelay)
	}

	return nil
}

// Backoff creates a backoff tracker bound to ctx.
//
// Callers record a failed attempt with NextDelay and keep going while
// Ongoing reports true. Since NextDelay counts retries, Ongoing turns false
// right after the MaxAttempts-th failure, which leaves no sleep after the
// last attempt.
func (p RetryPolicy) Backoff(ctx context.Context) *backoff.Backoff {
	maxDelay := p.MaxDelay
	if p.Fixed() {
		maxDelay = p.MinDelay
	}

	return backoff.New(ctx, backoff.Config{
		MinBackoff: p.MinDelay,
		MaxBackoff: maxDelay,
		MaxRetries: p.MaxAttempts,
	})
}

// String renders the policy for logs.
func (p RetryPolicy) String() string {
	if p.Fixed() {
		return fmt.Sprintf("fixed(attempts=%d, delay=%s)", p.MaxAttempts, p.MinDelay)
	}

	return fmt.Sprintf("exponential(attempts=%d, min=%s, max=%s)", p.MaxAttempts, p.MinDelay, p.MaxDelay)
}
