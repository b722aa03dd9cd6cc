package cqlboot

import (
	"time"

	"github.com/arloliu/cqlboot/adapter/cql"
	"github.com/arloliu/cqlboot/internal/logging"
	"github.com/arloliu/cqlboot/internal/metrics"
	"github.com/arloliu/cqlboot/policy"
	"github.com/arloliu/cqlboot/types"
)

const (
	// DefaultDialTimeout bounds a single dial, including authentication and
	// keyspace binding.
	DefaultDialTimeout = 10 * time.Second
	// DefaultStatementTimeout bounds each provisioning statement.
	DefaultStatementTimeout = 10 * time.Second
)

// StateChangeHandler is called after every state transition.
//
// It runs on the goroutine that performed the transition, outside the
// manager's lock, so it may call State or CurrentSession.
type StateChangeHandler func(from, to types.ConnectionState)

// Config holds configuration for a Manager.
type Config struct {
	Logger  types.Logger
	Metrics types.MetricsCollector

	RetryPolicy policy.RetryPolicy
	Classifier  policy.Classifier

	// DefaultCredentials is the identity used to provision the keyspace and
	// the configured user on a fresh cluster.
	DefaultCredentials types.Credentials

	// Bootstrap enables self-provisioning. When disabled, a rejected login or
	// missing keyspace fails fast with ErrProvisioningFailed.
	Bootstrap bool

	DialTimeout      time.Duration
	StatementTimeout time.Duration

	Consistency              cql.Consistency
	ProtoVersion             int
	DisableInitialHostLookup bool
	TLS                      *cql.TLSConfig

	OnStateChange StateChangeHandler
}

// DefaultConfig returns a Config with sensible defaults.
//
// Defaults:
//   - RetryPolicy: 5 attempts, fixed 2s delay
//   - Classifier: policy.DefaultClassifier()
//   - DefaultCredentials: cassandra/cassandra
//   - Bootstrap: enabled
//   - DialTimeout and StatementTimeout: 10s
//
// Returns:
//   - *Config: Configuration with default settings
func DefaultConfig() *Config {
	return &Config{
		Logger:             logging.NewNopLogger(),
		Metrics:            metrics.NewNopMetrics(),
		RetryPolicy:        policy.DefaultRetryPolicy(),
		Classifier:         policy.DefaultClassifier(),
		DefaultCredentials: types.DefaultCredentials(),
		Bootstrap:          true,
		DialTimeout:        DefaultDialTimeout,
		StatementTimeout:   DefaultStatementTimeout,
	}
}

// Option configures a Config.
type Option func(*Config)

// WithLogger sets the logger.
//
// *slog.Logger satisfies types.Logger directly.
//
// Parameters:
//   - logger: The logger implementation
//
// Returns:
//   - Option: Configuration option
func WithLogger(logger types.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
//
// If not set, a no-op collector is used that discards all metrics.
// Use contrib/metrics/vm.New() for VictoriaMetrics integration.
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("chatapp"))
//	manager, _ := cqlboot.NewManager(dialer, target, cqlboot.WithMetrics(collector))
func WithMetrics(collector types.MetricsCollector) Option {
	return func(c *Config) {
		if collector != nil {
			c.Metrics = collector
		}
	}
}

// WithRetryPolicy sets the outer retry policy.
func WithRetryPolicy(p policy.RetryPolicy) Option {
	return func(c *Config) {
		c.RetryPolicy = p
	}
}

// WithClassifier replaces the failure classifier.
//
// Parameters:
//   - classifier: Decides between provisioning and retrying a failed dial
//
// Returns:
//   - Option: Configuration option
func WithClassifier(classifier policy.Classifier) Option {
	return func(c *Config) {
		if classifier != nil {
			c.Classifier = classifier
		}
	}
}

// WithDefaultCredentials overrides the provisioning identity.
func WithDefaultCredentials(creds types.Credentials) Option {
	return func(c *Config) {
		c.DefaultCredentials = creds
	}
}

// WithBootstrap enables or disables self-provisioning.
//
// Production clusters are usually provisioned by an operator; disabling
// bootstrap there makes a wrong password fail fast instead of trying the
// default superuser.
func WithBootstrap(enabled bool) Option {
	return func(c *Config) {
		c.Bootstrap = enabled
	}
}

// WithDialTimeout bounds each dial. Zero disables the bound.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.DialTimeout = d
	}
}

// WithStatementTimeout bounds each provisioning statement and is passed to
// the driver as its query timeout. Zero keeps the driver default.
func WithStatementTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.StatementTimeout = d
	}
}

// WithConsistency sets the session's default consistency level.
func WithConsistency(consistency cql.Consistency) Option {
	return func(c *Config) {
		c.Consistency = consistency
	}
}

// WithProtoVersion pins the native protocol version instead of negotiating it.
func WithProtoVersion(version int) Option {
	return func(c *Config) {
		c.ProtoVersion = version
	}
}

// WithDisableInitialHostLookup makes the driver talk only to the configured
// endpoint, which is what a cluster behind NAT or a port-forward needs.
func WithDisableInitialHostLookup(disable bool) Option {
	return func(c *Config) {
		c.DisableInitialHostLookup = disable
	}
}

// WithTLS enables client TLS.
func WithTLS(tls *cql.TLSConfig) Option {
	return func(c *Config) {
		c.TLS = tls
	}
}

// WithOnStateChange registers a callback for state transitions.
//
// Example:
//
//	cqlboot.WithOnStateChange(func(from, to types.ConnectionState) {
//	    log.Printf("cassandra: %s -> %s", from, to)
//	})
func WithOnStateChange(fn StateChangeHandler) Option {
	return func(c *Config) {
		c.OnStateChange = fn
	}
}
