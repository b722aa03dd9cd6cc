// Package types provides shared types and errors for the cqlboot library.
//
// This is a "leaf" package with no imports from other cqlboot packages,
// allowing it to be imported by any package without causing import cycles.
package types

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
)

// DefaultPort is the native CQL protocol port.
const DefaultPort = 9042

// Endpoint identifies the contact point of a cluster.
type Endpoint struct {
	// Host is a hostname or IP address of one cluster node.
	Host string

	// Port is the native protocol port. Zero means DefaultPort.
	Port int
}

// PortOrDefault returns the configured port, or DefaultPort when unset.
func (e Endpoint) PortOrDefault() int {
	if e.Port == 0 {
		return DefaultPort
	}

	return e.Port
}

// String returns the endpoint in host:port form.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.PortOrDefault()))
}

// Validate checks that the endpoint can be dialed.
func (e Endpoint) Validate() error {
	if e.Host == "" {
		return fmt.Errorf("%w: endpoint host cannot be empty", ErrInvalidTarget)
	}
	if e.Port < 0 || e.Port > 65535 {
		return fmt.Errorf("%w: endpoint port %d out of range", ErrInvalidTarget, e.Port)
	}

	return nil
}

// Credentials is a username/password pair for PasswordAuthenticator clusters.
type Credentials struct {
	Username string
	Password string
}

// DefaultCredentials returns the superuser every fresh Cassandra or ScyllaDB
// cluster ships with. It is only used to provision the configured user.
func DefaultCredentials() Credentials {
	return Credentials{Username: "cassandra", Password: "cassandra"}
}

// String returns the username only; passwords never end up in logs.
func (c Credentials) String() string {
	return c.Username
}

// IsZero reports whether no username was configured.
func (c Credentials) IsZero() bool {
	return c.Username == ""
}

// Validate checks that a username and password are present.
func (c Credentials) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("%w: username cannot be empty", ErrInvalidTarget)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password for %q cannot be empty", ErrInvalidTarget, c.Username)
	}

	return nil
}

// SimpleStrategy is the replication class for single data center clusters.
const SimpleStrategy = "SimpleStrategy"

// ReplicationPolicy describes how a keyspace replicates its partitions.
type ReplicationPolicy struct {
	// Class is the replication strategy class. Only SimpleStrategy is supported.
	Class string

	// Factor is the number of replicas of each partition.
	Factor int
}

// SimpleReplication returns a SimpleStrategy policy with the given factor.
func SimpleReplication(factor int) ReplicationPolicy {
	return ReplicationPolicy{Class: SimpleStrategy, Factor: factor}
}

// CQL renders the policy as a CQL replication map.
func (p ReplicationPolicy) CQL() string {
	return fmt.Sprintf("{'class': '%s', 'replication_factor': %d}", p.Class, p.Factor)
}

// Validate checks the policy.
func (p ReplicationPolicy) Validate() error {
	if p.Class != SimpleStrategy {
		return fmt.Errorf("%w: unsupported replication class %q", ErrInvalidTarget, p.Class)
	}
	if p.Factor < 1 {
		return fmt.Errorf("%w: replication factor must be at least 1, got %d", ErrInvalidTarget, p.Factor)
	}

	return nil
}

// identifierRegex matches unquoted CQL identifiers usable as keyspace names.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,47}$`)

// Keyspace is a named namespace in the cluster together with the replication
// it is created with when absent.
type Keyspace struct {
	Name        string
	Replication ReplicationPolicy
}

// NewKeyspace returns a keyspace with SimpleStrategy and replication factor 1.
func NewKeyspace(name string) Keyspace {
	return Keyspace{Name: name, Replication: SimpleReplication(1)}
}

// Validate checks the keyspace name and replication policy.
func (k Keyspace) Validate() error {
	if !identifierRegex.MatchString(k.Name) {
		return fmt.Errorf("%w: keyspace name %q must be 1-48 alphanumeric or underscore characters starting with a letter",
			ErrInvalidTarget, k.Name)
	}

	return k.Replication.Validate()
}

// Target is everything a manager needs to reach its keyspace as the
// configured user.
type Target struct {
	Endpoint    Endpoint
	Keyspace    Keyspace
	Credentials Credentials
}

// Validate checks the endpoint, keyspace and credentials.
func (t Target) Validate() error {
	if err := t.Endpoint.Validate(); err != nil {
		return err
	}
	if err := t.Keyspace.Validate(); err != nil {
		return err
	}

	return t.Credentials.Validate()
}

// ConnectionState is the lifecycle state of a connection manager.
type ConnectionState int32

const (
	// Disconnected means no session is open and no attempt is running.
	Disconnected ConnectionState = iota
	// Connecting means a dial with the configured credentials is in progress.
	Connecting
	// Connected means a session bound to the configured keyspace is available.
	Connected
	// Bootstrapping means the keyspace and user are being provisioned with
	// the default credentials.
	Bootstrapping
	// Failed means the last attempt failed and no handle is open.
	Failed
)

// String returns the state name.
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Bootstrapping:
		return "bootstrapping"
	case Failed:
		return "failed"
	}

	return "unknown"
}

// Stage names a step of the connect sequence in logs and errors.
type Stage string

// Stages of the connect sequence.
const (
	StageConfiguredCredentials Stage = "configured_credentials"
	StageDefaultCredentials    Stage = "default_credentials"
	StageCreateKeyspace        Stage = "create_keyspace"
	StageBindKeyspace          Stage = "bind_keyspace"
	StageCreateUser            Stage = "create_user"
	StageReconnect             Stage = "reconnect"
	StageRetry                 Stage = "retry"
	StageGiveUp                Stage = "give_up"
	StageShutdown              Stage = "shutdown"
	StageWait                  Stage = "wait"
)

// FailureClass tells the manager how to react to a dial failure.
type FailureClass int

const (
	// ClassConnectivity covers unreachable hosts, timeouts and protocol
	// errors. The attempt is retried from scratch.
	ClassConnectivity FailureClass = iota
	// ClassAuthOrKeyspace covers rejected credentials and a missing
	// keyspace. It triggers the bootstrap path.
	ClassAuthOrKeyspace
)

// String returns the class name.
func (c FailureClass) String() string {
	if c == ClassAuthOrKeyspace {
		return "auth_or_keyspace"
	}

	return "connectivity"
}

// Sentinel errors for common failure scenarios.
var (
	// ErrAuthOrKeyspaceMissing classifies a dial rejected because the
	// credentials are unknown or the keyspace does not exist. It is
	// recovered locally by bootstrapping and only surfaces wrapped in
	// ErrProvisioningFailed.
	ErrAuthOrKeyspaceMissing = errors.New("cqlboot: authentication failed or keyspace does not exist")

	// ErrConnectivity classifies an unreachable cluster, a timeout or a
	// protocol error. It is retried by the outer loop.
	ErrConnectivity = errors.New("cqlboot: cluster unreachable")

	// ErrProvisioningFailed indicates the keyspace or user could not be
	// provisioned. It is fatal and never retried.
	ErrProvisioningFailed = errors.New("cqlboot: provisioning failed")

	// ErrExhausted indicates every connect attempt failed.
	ErrExhausted = errors.New("cqlboot: connection attempts exhausted")

	// ErrAborted indicates the connect sequence was cancelled by the caller
	// context or by Shutdown.
	ErrAborted = errors.New("cqlboot: connect aborted")

	// ErrNotConnected indicates no session is available yet.
	ErrNotConnected = errors.New("cqlboot: not connected")

	// ErrInvalidTarget indicates an invalid endpoint, keyspace or credentials.
	ErrInvalidTarget = errors.New("cqlboot: invalid target")

	// ErrNilDialer indicates that a nil dialer was provided.
	ErrNilDialer = errors.New("cqlboot: dialer cannot be nil")
)

// ConnectionError is returned by Connect when the sequence fails.
//
// Kind is one of ErrExhausted, ErrProvisioningFailed or ErrAborted, so
// callers can use errors.Is on either the kind or the driver cause.
type ConnectionError struct {
	// Kind is the sentinel describing the failure.
	Kind error

	// Stage is where the sequence stopped.
	Stage Stage

	// Attempt is the 1-based attempt number that failed last.
	Attempt int

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	msg := e.Kind.Error() + " at " + string(e.Stage) + " (attempt " + strconv.Itoa(e.Attempt) + ")"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the kind and the cause for errors.Is/As compatibility.
func (e *ConnectionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Cause}
}

// StageError wraps a failure of a single stage together with its class.
// It is used inside the connect sequence and ends up as the Cause of a
// ConnectionError.
type StageError struct {
	Stage Stage
	Class FailureClass
	Cause error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return "cqlboot: " + string(e.Stage) + " failed (" + e.Class.String() + "): " + e.Cause.Error()
}

// Unwrap returns the class sentinel and the cause.
func (e *StageError) Unwrap() []error {
	if e.Class == ClassAuthOrKeyspace {
		return []error{ErrAuthOrKeyspaceMissing, e.Cause}
	}

	return []error{ErrConnectivity, e.Cause}
}
