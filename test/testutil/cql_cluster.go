package testutil

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/cassandra"
	"github.com/testcontainers/testcontainers-go/modules/scylladb"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/arloliu/cqlboot/adapter/cql"
	v1 "github.com/arloliu/cqlboot/adapter/cql/v1"
	"github.com/arloliu/cqlboot/types"
)

// CQLClusterType identifies the database backend.
type CQLClusterType int

const (
	// CQLClusterTypeNone indicates no cluster is running.
	CQLClusterTypeNone CQLClusterType = iota
	// CQLClusterTypeScyllaDB indicates ScyllaDB is being used.
	CQLClusterTypeScyllaDB
	// CQLClusterTypeCassandra indicates Cassandra is being used.
	CQLClusterTypeCassandra
)

// String returns the string representation of the cluster type.
func (t CQLClusterType) String() string {
	switch t {
	case CQLClusterTypeScyllaDB:
		return "ScyllaDB"
	case CQLClusterTypeCassandra:
		return "Cassandra"
	case CQLClusterTypeNone:
		return "None"
	}

	return "Unknown"
}

// CQLCluster is a fresh single-node cluster with PasswordAuthenticator
// enabled. Only the default cassandra/cassandra superuser exists; no
// application keyspace is created.
type CQLCluster struct {
	Type     CQLClusterType
	Endpoint types.Endpoint

	scyllaContainer    *scylladb.Container
	cassandraContainer *cassandra.CassandraContainer
}

// Terminate stops the container.
func (c *CQLCluster) Terminate(ctx context.Context) error {
	switch c.Type {
	case CQLClusterTypeScyllaDB:
		if c.scyllaContainer != nil {
			return c.scyllaContainer.Terminate(ctx)
		}
	case CQLClusterTypeCassandra:
		if c.cassandraContainer != nil {
			return c.cassandraContainer.Terminate(ctx)
		}
	case CQLClusterTypeNone:
	}

	return nil
}

// DialConfig returns a dial configuration for creds bound to keyspace.
func (c *CQLCluster) DialConfig(creds types.Credentials, keyspace string) cql.DialConfig {
	cfg := DialConfigFor(c.Endpoint, creds)
	cfg.Keyspace = keyspace

	return cfg
}

// DialConfigFor returns an unbound dial configuration suitable for a node
// running behind a mapped container port.
func DialConfigFor(endpoint types.Endpoint, creds types.Credentials) cql.DialConfig {
	return cql.DialConfig{
		Endpoint:                 endpoint,
		Credentials:              creds,
		ConnectTimeout:           30 * time.Second,
		Timeout:                  30 * time.Second,
		DisableInitialHostLookup: true,
	}
}

// CQLClusterOptions configures the CQL cluster container.
type CQLClusterOptions struct {
	// PreferScyllaDB attempts to use ScyllaDB first, falls back to Cassandra.
	// Default: true
	PreferScyllaDB bool
	// ScyllaDBImage is the ScyllaDB image. Default: "scylladb/scylla:6.2"
	ScyllaDBImage string
	// CassandraImage is the Cassandra image. Default: "cassandra:4.1"
	CassandraImage string
	// Memory for ScyllaDB. Default: "512M"
	ScyllaDBMemory string
	// SMP (CPU cores) for ScyllaDB. Default: 1
	ScyllaDBSMP int
	// StartupTimeout bounds the wait for the default superuser. Default: 3m
	StartupTimeout time.Duration
}

// DefaultCQLClusterOptions returns default options.
func DefaultCQLClusterOptions() CQLClusterOptions {
	return CQLClusterOptions{
		PreferScyllaDB: true,
		ScyllaDBImage:  "scylladb/scylla:6.2",
		CassandraImage: "cassandra:4.1",
		ScyllaDBMemory: "512M",
		ScyllaDBSMP:    1,
		StartupTimeout: 3 * time.Minute,
	}
}

// IsAIOAvailable checks if the system has available AIO slots for ScyllaDB.
func IsAIOAvailable() bool {
	aioNrData, err := os.ReadFile("/proc/sys/fs/aio-nr")
	if err != nil {
		return false
	}

	aioMaxNrData, err := os.ReadFile("/proc/sys/fs/aio-max-nr")
	if err != nil {
		return false
	}

	aioNr, _ := strconv.ParseInt(strings.TrimSpace(string(aioNrData)), 10, 64)
	aioMaxNr, _ := strconv.ParseInt(strings.TrimSpace(string(aioMaxNrData)), 10, 64)

	return aioNr < aioMaxNr
}

// StartCQLCluster starts a fresh authenticated cluster and waits until the
// default superuser can log in. Prefers ScyllaDB and falls back to
// Cassandra when AIO is unavailable or ScyllaDB fails to start.
//
// This function is designed for use in TestMain where *testing.T is not available.
// Caller is responsible for calling cluster.Terminate(ctx) for cleanup.
func StartCQLCluster(ctx context.Context, opts CQLClusterOptions) (*CQLCluster, error) {
	if opts.PreferScyllaDB && IsAIOAvailable() {
		cluster, err := startScyllaDBCluster(ctx, opts)
		if err == nil {
			return cluster, nil
		}
		fmt.Printf("ScyllaDB failed: %v, falling back to Cassandra...\n", err)
	}

	return startCassandraCluster(ctx, opts)
}

func startScyllaDBCluster(ctx context.Context, opts CQLClusterOptions) (*CQLCluster, error) {
	container, err := scylladb.Run(ctx, opts.ScyllaDBImage,
		scylladb.WithCustomCommands(
			fmt.Sprintf("--memory=%s", opts.ScyllaDBMemory),
			fmt.Sprintf("--smp=%d", opts.ScyllaDBSMP),
			"--developer-mode=1",
			"--overprovisioned=1",
			"--reactor-backend=epoll",
			"--authenticator=PasswordAuthenticator",
			"--authorizer=CassandraAuthorizer",
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start ScyllaDB container: %w", err)
	}

	host, err := container.NonShardAwareConnectionHost(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection host: %w", err)
	}

	cluster := &CQLCluster{Type: CQLClusterTypeScyllaDB, scyllaContainer: container}
	if err := cluster.ready(ctx, host, opts.StartupTimeout); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return cluster, nil
}

// enableAuth switches the stock cassandra.yaml to password authentication
// before handing over to the image entrypoint.
const enableAuth = `sed -i ` +
	`-e 's/^authenticator:.*/authenticator: PasswordAuthenticator/' ` +
	`-e 's/^authorizer:.*/authorizer: CassandraAuthorizer/' ` +
	`/etc/cassandra/cassandra.yaml && exec docker-entrypoint.sh cassandra -f`

func startCassandraCluster(ctx context.Context, opts CQLClusterOptions) (*CQLCluster, error) {
	container, err := cassandra.Run(ctx, opts.CassandraImage,
		testcontainers.WithEnv(map[string]string{
			"HEAP_NEWSIZE":     "128M",
			"MAX_HEAP_SIZE":    "512M",
			"CASSANDRA_SNITCH": "SimpleSnitch",
		}),
		testcontainers.CustomizeRequestOption(func(req *testcontainers.GenericContainerRequest) error {
			req.Entrypoint = []string{"sh", "-c", enableAuth}
			req.Cmd = nil

			return nil
		}),
		// the module's cqlsh probe cannot log in once authentication is on
		testcontainers.WithWaitStrategy(
			wait.ForLog("Created default superuser role").WithStartupTimeout(opts.StartupTimeout),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start Cassandra container: %w", err)
	}

	host, err := container.ConnectionHost(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection host: %w", err)
	}

	cluster := &CQLCluster{Type: CQLClusterTypeCassandra, cassandraContainer: container}
	if err := cluster.ready(ctx, host, opts.StartupTimeout); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return cluster, nil
}

func (c *CQLCluster) ready(ctx context.Context, hostPort string, timeout time.Duration) error {
	endpoint, err := ParseEndpoint(hostPort)
	if err != nil {
		return err
	}
	c.Endpoint = endpoint

	return WaitForLogin(ctx, v1.NewDialer(), c.DialConfig(types.DefaultCredentials(), ""), timeout)
}

// ParseEndpoint splits a host:port string as returned by the container
// modules.
func ParseEndpoint(hostPort string) (types.Endpoint, error) {
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return types.Endpoint{}, fmt.Errorf("invalid endpoint %q: %w", hostPort, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return types.Endpoint{}, fmt.Errorf("invalid port in %q: %w", hostPort, err)
	}

	return types.Endpoint{Host: host, Port: port}, nil
}

// WaitForLogin dials cfg until it succeeds or timeout elapses. Nodes accept
// connections a few seconds before the default superuser exists.
func WaitForLogin(ctx context.Context, dialer cql.Dialer, cfg cql.DialConfig, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for {
		session, err := dialer.Dial(ctx, cfg)
		if err == nil {
			session.Close()
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s never accepted %s: %w", cfg.Endpoint, cfg.Credentials, lastErr)
		case <-time.After(2 * time.Second):
		}
	}
}
