package v2

import (
	"context"

	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/arloliu/cqlboot/adapter/cql"
)

// ClusterConfigurer adjusts a cluster configuration before the session is created.
type ClusterConfigurer func(cluster *gocql.ClusterConfig)

// Dialer opens sessions with the Apache Cassandra gocql driver.
type Dialer struct {
	configurers []ClusterConfigurer
}

var _ cql.Dialer = (*Dialer)(nil)

// DialerOption configures a Dialer.
type DialerOption func(*Dialer)

// WithClusterConfigurer registers a hook applied to every cluster config.
func WithClusterConfigurer(fn ClusterConfigurer) DialerOption {
	return func(d *Dialer) {
		d.configurers = append(d.configurers, fn)
	}
}

// NewDialer creates a gocql v2 dialer.
func NewDialer(opts ...DialerOption) *Dialer {
	d := &Dialer{}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// ClusterConfig translates a DialConfig into a gocql cluster configuration.
func (d *Dialer) ClusterConfig(cfg cql.DialConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Endpoint.Host)
	cluster.Port = cfg.Endpoint.PortOrDefault()
	cluster.Keyspace = cfg.Keyspace
	cluster.DisableInitialHostLookup = cfg.DisableInitialHostLookup

	if cfg.ConnectTimeout > 0 {
		cluster.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
	}
	if cfg.Consistency != cql.Any {
		cluster.Consistency = gocql.Consistency(cfg.Consistency)
	}
	if cfg.ProtoVersion > 0 {
		cluster.ProtoVersion = cfg.ProtoVersion
	}
	if !cfg.Credentials.IsZero() {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Credentials.Username,
			Password: cfg.Credentials.Password,
		}
	}
	if cfg.TLS != nil {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 cfg.TLS.CaPath,
			CertPath:               cfg.TLS.CertPath,
			KeyPath:                cfg.TLS.KeyPath,
			EnableHostVerification: cfg.TLS.EnableHostVerification,
		}
	}

	for _, fn := range d.configurers {
		fn(cluster)
	}

	return cluster
}

// Dial creates a gocql v2 session.
func (d *Dialer) Dial(ctx context.Context, cfg cql.DialConfig) (cql.Session, error) {
	cluster := d.ClusterConfig(cfg)

	return cql.DialContext(ctx, func() (cql.Session, error) {
		session, err := cluster.CreateSession()
		if err != nil {
			return nil, err
		}

		return NewSession(session), nil
	})
}
