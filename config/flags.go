package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// binding ties one setting to its environment variable and flag.
type binding struct {
	key   string
	env   string
	flag  string
	apply func(v *viper.Viper, key string, s *Settings) error
}

// Environment variable names follow the chat application's settings.
var bindings = []binding{
	{"cassandra.host", "CASSANDRA_HOST", "host", str(func(s *Settings) *string { return &s.Cassandra.Host })},
	{"cassandra.port", "CASSANDRA_PORT", "port", integer(func(s *Settings) *int { return &s.Cassandra.Port })},
	{"cassandra.keyspace", "CASSANDRA_KEYSPACE", "keyspace", str(func(s *Settings) *string { return &s.Cassandra.Keyspace })},
	{"cassandra.replication_factor", "CASSANDRA_REPLICATION_FACTOR", "replication-factor", integer(func(s *Settings) *int { return &s.Cassandra.ReplicationFactor })},
	{"cassandra.username", "CASSANDRA_USERNAME", "username", str(func(s *Settings) *string { return &s.Cassandra.Username })},
	{"cassandra.password", "CASSANDRA_PASSWORD", "password", str(func(s *Settings) *string { return &s.Cassandra.Password })},
	{"cassandra.default_username", "CASSANDRA_DEFAULT_USERNAME", "default-username", str(func(s *Settings) *string { return &s.Cassandra.DefaultUsername })},
	{"cassandra.default_password", "CASSANDRA_DEFAULT_PASSWORD", "default-password", str(func(s *Settings) *string { return &s.Cassandra.DefaultPassword })},
	{"cassandra.bootstrap", "CASSANDRA_BOOTSTRAP", "bootstrap", boolean(func(s *Settings) *bool { return &s.Cassandra.Bootstrap })},
	{"cassandra.driver", "CASSANDRA_DRIVER", "driver", str(func(s *Settings) *string { return &s.Cassandra.Driver })},
	{"cassandra.consistency", "CASSANDRA_CONSISTENCY", "consistency", str(func(s *Settings) *string { return &s.Cassandra.Consistency })},
	{"cassandra.proto_version", "CASSANDRA_PROTO_VERSION", "proto-version", integer(func(s *Settings) *int { return &s.Cassandra.ProtoVersion })},
	{"cassandra.disable_initial_host_lookup", "CASSANDRA_DISABLE_INITIAL_HOST_LOOKUP", "disable-initial-host-lookup", boolean(func(s *Settings) *bool { return &s.Cassandra.DisableInitialHostLookup })},
	{"cassandra.dial_timeout", "CASSANDRA_DIAL_TIMEOUT", "dial-timeout", duration(func(s *Settings) *time.Duration { return &s.Cassandra.DialTimeout })},
	{"cassandra.statement_timeout", "DB_TIMEOUT", "statement-timeout", duration(func(s *Settings) *time.Duration { return &s.Cassandra.StatementTimeout })},
	{"cassandra.tls.ca_path", "CASSANDRA_TLS_CA", "tls-ca", str(func(s *Settings) *string { return &s.Cassandra.TLS.CaPath })},
	{"cassandra.tls.cert_path", "CASSANDRA_TLS_CERT", "tls-cert", str(func(s *Settings) *string { return &s.Cassandra.TLS.CertPath })},
	{"cassandra.tls.key_path", "CASSANDRA_TLS_KEY", "tls-key", str(func(s *Settings) *string { return &s.Cassandra.TLS.KeyPath })},
	{"cassandra.tls.verify_hostname", "CASSANDRA_TLS_VERIFY_HOSTNAME", "tls-verify-hostname", boolean(func(s *Settings) *bool { return &s.Cassandra.TLS.VerifyHostname })},
	{"retry.max_attempts", "CASSANDRA_MAX_ATTEMPTS", "max-attempts", integer(func(s *Settings) *int { return &s.Retry.MaxAttempts })},
	{"retry.delay", "CASSANDRA_RETRY_DELAY", "retry-delay", duration(func(s *Settings) *time.Duration { return &s.Retry.Delay })},
	{"retry.max_delay", "CASSANDRA_RETRY_MAX_DELAY", "retry-max-delay", duration(func(s *Settings) *time.Duration { return &s.Retry.MaxDelay })},
	{"log.level", "LOG_LEVEL", "log-level", str(func(s *Settings) *string { return &s.Log.Level })},
	{"log.format", "LOG_FORMAT", "log-format", str(func(s *Settings) *string { return &s.Log.Format })},
	{"http.listen", "HTTP_LISTEN", "listen", str(func(s *Settings) *string { return &s.HTTP.Listen })},
}

// RegisterFlags adds one flag per setting to fs, with the defaults as
// help values. Only flags set on the command line override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.String("host", d.Cassandra.Host, "cluster contact point")
	fs.Int("port", d.Cassandra.Port, "native protocol port")
	fs.String("keyspace", d.Cassandra.Keyspace, "application keyspace")
	fs.Int("replication-factor", d.Cassandra.ReplicationFactor, "replication factor used when creating the keyspace")
	fs.String("username", d.Cassandra.Username, "application user")
	fs.String("password", d.Cassandra.Password, "application user password")
	fs.String("default-username", d.Cassandra.DefaultUsername, "superuser used to provision a fresh cluster")
	fs.String("default-password", d.Cassandra.DefaultPassword, "password of the provisioning superuser")
	fs.Bool("bootstrap", d.Cassandra.Bootstrap, "create the keyspace and user when they are missing")
	fs.String("driver", d.Cassandra.Driver, "CQL driver (v1 or v2)")
	fs.String("consistency", d.Cassandra.Consistency, "default consistency level, e.g. LOCAL_QUORUM")
	fs.Int("proto-version", d.Cassandra.ProtoVersion, "native protocol version, 0 to negotiate")
	fs.Bool("disable-initial-host-lookup", d.Cassandra.DisableInitialHostLookup, "only talk to the contact point")
	fs.Duration("dial-timeout", d.Cassandra.DialTimeout, "timeout of a single dial")
	fs.Duration("statement-timeout", d.Cassandra.StatementTimeout, "timeout of a provisioning statement")
	fs.String("tls-ca", "", "CA certificate, enables TLS")
	fs.String("tls-cert", "", "client certificate")
	fs.String("tls-key", "", "client key")
	fs.Bool("tls-verify-hostname", false, "verify node certificates against their hostname")
	fs.Int("max-attempts", d.Retry.MaxAttempts, "connect attempts before giving up")
	fs.Duration("retry-delay", d.Retry.Delay, "delay between attempts")
	fs.Duration("retry-max-delay", d.Retry.MaxDelay, "maximum delay, enables exponential backoff when above retry-delay")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("log-format", d.Log.Format, "log format (text or json)")
	fs.String("listen", d.HTTP.Listen, "health and metrics listen address, empty to disable")
}

func str(field func(*Settings) *string) func(*viper.Viper, string, *Settings) error {
	return func(v *viper.Viper, key string, s *Settings) error {
		*field(s) = v.GetString(key)
		return nil
	}
}

func integer(field func(*Settings) *int) func(*viper.Viper, string, *Settings) error {
	return func(v *viper.Viper, key string, s *Settings) error {
		n, err := cast.ToIntE(v.Get(key))
		if err != nil {
			return err
		}
		*field(s) = n

		return nil
	}
}

func boolean(field func(*Settings) *bool) func(*viper.Viper, string, *Settings) error {
	return func(v *viper.Viper, key string, s *Settings) error {
		b, err := cast.ToBoolE(v.Get(key))
		if err != nil {
			return err
		}
		*field(s) = b

		return nil
	}
}

// duration accepts a bare number of seconds, the way DB_TIMEOUT is given,
// or a Go duration string such as "500ms".
func duration(field func(*Settings) *time.Duration) func(*viper.Viper, string, *Settings) error {
	return func(v *viper.Viper, key string, s *Settings) error {
		raw := v.Get(key)
		if str, ok := raw.(string); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
				*field(s) = time.Duration(n) * time.Second
				return nil
			}
		}

		d, err := cast.ToDurationE(raw)
		if err != nil {
			return err
		}
		*field(s) = d

		return nil
	}
}
