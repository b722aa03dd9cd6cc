package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/cqlboot"
	"github.com/arloliu/cqlboot/adapter/cql"
	v1 "github.com/arloliu/cqlboot/adapter/cql/v1"
	v2 "github.com/arloliu/cqlboot/adapter/cql/v2"
	"github.com/arloliu/cqlboot/internal/logging"
	"github.com/arloliu/cqlboot/policy"
	"github.com/arloliu/cqlboot/types"
)

// Supported driver names.
const (
	DriverV1 = "v1"
	DriverV2 = "v2"
)

// Settings is the complete configuration of the cqlboot binary.
type Settings struct {
	Cassandra CassandraSettings `yaml:"cassandra"`
	Retry     RetrySettings     `yaml:"retry"`
	Log       LogSettings       `yaml:"log"`
	HTTP      HTTPSettings      `yaml:"http"`
}

// CassandraSettings describes the cluster, the keyspace and both identities.
type CassandraSettings struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Keyspace          string `yaml:"keyspace"`
	ReplicationFactor int    `yaml:"replication_factor"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	DefaultUsername string `yaml:"default_username"`
	DefaultPassword string `yaml:"default_password"`

	// Bootstrap provisions a missing keyspace and user with the default
	// identity.
	Bootstrap bool `yaml:"bootstrap"`

	Driver                   string        `yaml:"driver"`
	Consistency              string        `yaml:"consistency"`
	ProtoVersion             int           `yaml:"proto_version"`
	DisableInitialHostLookup bool          `yaml:"disable_initial_host_lookup"`
	DialTimeout              time.Duration `yaml:"dial_timeout"`
	StatementTimeout         time.Duration `yaml:"statement_timeout"`

	TLS TLSSettings `yaml:"tls"`
}

// TLSSettings enables TLS when CaPath is set.
type TLSSettings struct {
	CaPath         string `yaml:"ca_path"`
	CertPath       string `yaml:"cert_path"`
	KeyPath        string `yaml:"key_path"`
	VerifyHostname bool   `yaml:"verify_hostname"`
}

// RetrySettings bounds the connect loop. A MaxDelay above Delay selects
// exponential backoff.
type RetrySettings struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// LogSettings configures the process logger.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPSettings configures the health and metrics listener. An empty Listen
// disables it.
type HTTPSettings struct {
	Listen string `yaml:"listen"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Settings {
	defaults := types.DefaultCredentials()

	return &Settings{
		Cassandra: CassandraSettings{
			Host:              "localhost",
			Port:              types.DefaultPort,
			ReplicationFactor: 1,
			DefaultUsername:   defaults.Username,
			DefaultPassword:   defaults.Password,
			Bootstrap:         true,
			Driver:            DriverV1,
			DialTimeout:       cqlboot.DefaultDialTimeout,
			StatementTimeout:  cqlboot.DefaultStatementTimeout,
		},
		Retry: RetrySettings{
			MaxAttempts: policy.DefaultMaxAttempts,
			Delay:       policy.DefaultRetryDelay,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
		HTTP: HTTPSettings{
			Listen: ":8080",
		},
	}
}

// LoadEnvFiles loads variables from dotenv files into the process
// environment. Missing files are skipped and existing variables win.
func LoadEnvFiles(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return fmt.Errorf("load env file %s: %w", file, err)
		}
	}

	return nil
}

// Load builds the settings from defaults, the YAML file at path (if any),
// the environment and the changed flags, in increasing precedence.
//
// Parameters:
//   - path: YAML file, empty to skip
//   - flags: Flags registered with RegisterFlags, nil to skip
//
// Returns:
//   - *Settings: The merged settings, not yet validated
//   - error: If the file cannot be read or a value cannot be parsed
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	s := Default()

	if path != "" {
		if err := readFile(path, s); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	for _, b := range bindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, err
		}
		if flags == nil {
			continue
		}
		if f := flags.Lookup(b.flag); f != nil {
			if err := v.BindPFlag(b.key, f); err != nil {
				return nil, err
			}
		}
	}

	for _, b := range bindings {
		if !v.IsSet(b.key) {
			continue
		}
		if err := b.apply(v, b.key, s); err != nil {
			return nil, fmt.Errorf("%s: %w", b.key, err)
		}
	}

	return s, nil
}

func readFile(path string, s *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return nil
}

// Validate checks the settings without contacting the cluster.
func (s *Settings) Validate() error {
	if err := s.Target().Validate(); err != nil {
		return err
	}
	if s.Cassandra.Bootstrap {
		if err := s.DefaultCredentials().Validate(); err != nil {
			return fmt.Errorf("default credentials: %w", err)
		}
	}
	if err := s.RetryPolicy().Validate(); err != nil {
		return err
	}
	if _, err := s.Dialer(); err != nil {
		return err
	}
	if _, err := s.consistency(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(s.Log.Level); err != nil {
		return err
	}

	return nil
}

// Target returns the cluster target described by the settings.
func (s *Settings) Target() types.Target {
	return types.Target{
		Endpoint: types.Endpoint{Host: s.Cassandra.Host, Port: s.Cassandra.Port},
		Keyspace: types.Keyspace{
			Name:        s.Cassandra.Keyspace,
			Replication: types.SimpleReplication(s.Cassandra.ReplicationFactor),
		},
		Credentials: types.Credentials{Username: s.Cassandra.Username, Password: s.Cassandra.Password},
	}
}

// DefaultCredentials returns the provisioning identity.
func (s *Settings) DefaultCredentials() types.Credentials {
	return types.Credentials{Username: s.Cassandra.DefaultUsername, Password: s.Cassandra.DefaultPassword}
}

// RetryPolicy returns the connect retry policy.
func (s *Settings) RetryPolicy() policy.RetryPolicy {
	if s.Retry.MaxDelay > s.Retry.Delay {
		return policy.Exponential(s.Retry.MaxAttempts, s.Retry.Delay, s.Retry.MaxDelay)
	}

	return policy.FixedDelay(s.Retry.MaxAttempts, s.Retry.Delay)
}

// Dialer returns the dialer of the configured driver.
func (s *Settings) Dialer() (cql.Dialer, error) {
	switch strings.ToLower(s.Cassandra.Driver) {
	case "", DriverV1:
		return v1.NewDialer(), nil
	case DriverV2:
		return v2.NewDialer(), nil
	}

	return nil, fmt.Errorf("%w: unknown driver %q (want %s or %s)", types.ErrInvalidTarget, s.Cassandra.Driver, DriverV1, DriverV2)
}

// Options converts the settings into manager options. logger and collector
// may be nil.
func (s *Settings) Options(logger types.Logger, collector types.MetricsCollector) ([]cqlboot.Option, error) {
	consistency, err := s.consistency()
	if err != nil {
		return nil, err
	}

	opts := []cqlboot.Option{
		cqlboot.WithLogger(logger),
		cqlboot.WithMetrics(collector),
		cqlboot.WithRetryPolicy(s.RetryPolicy()),
		cqlboot.WithDefaultCredentials(s.DefaultCredentials()),
		cqlboot.WithBootstrap(s.Cassandra.Bootstrap),
		cqlboot.WithDialTimeout(s.Cassandra.DialTimeout),
		cqlboot.WithStatementTimeout(s.Cassandra.StatementTimeout),
		cqlboot.WithConsistency(consistency),
		cqlboot.WithProtoVersion(s.Cassandra.ProtoVersion),
		cqlboot.WithDisableInitialHostLookup(s.Cassandra.DisableInitialHostLookup),
	}

	if tls := s.Cassandra.TLS; tls.CaPath != "" {
		opts = append(opts, cqlboot.WithTLS(&cql.TLSConfig{
			CaPath:                 tls.CaPath,
			CertPath:               tls.CertPath,
			KeyPath:                tls.KeyPath,
			EnableHostVerification: tls.VerifyHostname,
		}))
	}

	return opts, nil
}

func (s *Settings) consistency() (cql.Consistency, error) {
	if s.Cassandra.Consistency == "" {
		return cql.Any, nil
	}

	c, err := v1.ParseConsistency(s.Cassandra.Consistency)
	if err != nil {
		return cql.Any, fmt.Errorf("%w: consistency %q: %w", types.ErrInvalidTarget, s.Cassandra.Consistency, err)
	}
	// cql.Any is the adapters' "driver default" marker
	if c == cql.Any {
		return cql.Any, fmt.Errorf("%w: consistency ANY cannot be used as a default, leave it empty for the driver default",
			types.ErrInvalidTarget)
	}

	return c, nil
}
