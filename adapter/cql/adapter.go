// Package cql provides CQL-specific adapter interfaces for different gocql versions.
package cql

import (
	"context"
	"time"

	"github.com/arloliu/cqlboot/types"
)

// Consistency represents the Cassandra consistency level.
type Consistency uint16

// Common consistency levels matching gocql.
const (
	Any         Consistency = 0x00
	One         Consistency = 0x01
	Two         Consistency = 0x02
	Three       Consistency = 0x03
	Quorum      Consistency = 0x04
	All         Consistency = 0x05
	LocalQuorum Consistency = 0x06
	EachQuorum  Consistency = 0x07
	Serial      Consistency = 0x08
	LocalSerial Consistency = 0x09
	LocalOne    Consistency = 0x0A
)

// BatchType represents the type of batch operation.
type BatchType byte

// Batch types matching gocql.
const (
	LoggedBatch   BatchType = 0
	UnloggedBatch BatchType = 1
	CounterBatch  BatchType = 2
)

// Session represents a raw CQL session from the underlying driver.
//
// This interface is implemented by adapters for gocql v1 and v2.
type Session interface {
	// Query creates a new query for the given statement.
	//
	// Parameters:
	//   - stmt: CQL statement with ? placeholders
	//   - values: Values to bind to placeholders
	//
	// Returns:
	//   - Query: A query builder
	Query(stmt string, values ...any) Query

	// Batch creates a new batch of the given type.
	Batch(kind BatchType) Batch

	// Closed reports whether Close has been called.
	Closed() bool

	// Close terminates the session.
	Close()
}

// Query represents a raw CQL query from the underlying driver.
type Query interface {
	// Consistency sets the consistency level.
	Consistency(c Consistency) Query

	// PageSize sets the page size.
	PageSize(n int) Query

	// PageState sets the pagination state.
	PageState(state []byte) Query

	// WithTimestamp sets the write timestamp.
	WithTimestamp(ts int64) Query

	// Exec executes the query.
	Exec() error

	// ExecContext executes the query with context.
	ExecContext(ctx context.Context) error

	// ScanContext executes and scans a single row with context.
	ScanContext(ctx context.Context, dest ...any) error

	// IterContext returns an iterator for results with context.
	IterContext(ctx context.Context) Iter

	// MapScanContext executes and scans into a map with context.
	MapScanContext(ctx context.Context, m map[string]any) error

	// Statement returns the CQL statement.
	Statement() string

	// Values returns the bound values.
	Values() []any
}

// Batch represents a raw CQL batch from the underlying driver.
type Batch interface {
	// Query adds a statement to the batch.
	Query(stmt string, args ...any) Batch

	// Consistency sets the consistency level.
	Consistency(c Consistency) Batch

	// ExecContext executes the batch with context.
	ExecContext(ctx context.Context) error

	// Size returns the number of statements in the batch.
	Size() int
}

// Iter represents a raw CQL iterator from the underlying driver.
type Iter interface {
	// Scan reads the next row.
	Scan(dest ...any) bool

	// MapScan reads the next row into a map.
	MapScan(m map[string]any) bool

	// PageState returns the pagination token.
	PageState() []byte

	// Close closes the iterator.
	Close() error
}

// TLSConfig enables TLS towards the cluster.
type TLSConfig struct {
	// CaPath is the CA certificate used to verify the nodes.
	CaPath string

	// CertPath and KeyPath are the client certificate pair, if the cluster
	// requires client authentication.
	CertPath string
	KeyPath  string

	// EnableHostVerification checks node certificates against their hostname.
	EnableHostVerification bool
}

// DialConfig describes one cluster handle to open.
type DialConfig struct {
	// Endpoint is the contact point.
	Endpoint types.Endpoint

	// Credentials are sent to PasswordAuthenticator. Zero value disables
	// authentication.
	Credentials types.Credentials

	// Keyspace binds the session. Empty leaves the handle unbound.
	Keyspace string

	// ConnectTimeout bounds the initial connection to each node.
	ConnectTimeout time.Duration

	// Timeout bounds each statement.
	Timeout time.Duration

	// Consistency is the default consistency of the session.
	Consistency Consistency

	// ProtoVersion pins the native protocol version. Zero negotiates.
	ProtoVersion int

	// DisableInitialHostLookup skips reading system.peers, which is needed
	// when nodes advertise addresses the client cannot reach.
	DisableInitialHostLookup bool

	// TLS enables encrypted connections when non-nil.
	TLS *TLSConfig
}

// Dialer opens cluster handles.
//
// Implementations must release any partially created handle before
// returning an error.
type Dialer interface {
	// Dial opens a session described by cfg.
	//
	// Parameters:
	//   - ctx: Context for cancellation; drivers that cannot be interrupted
	//     are abandoned and their late session is closed
	//   - cfg: What to connect to and how
	//
	// Returns:
	//   - Session: An open session
	//   - error: The driver error if the handle could not be opened
	Dial(ctx context.Context, cfg DialConfig) (Session, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, cfg DialConfig) (Session, error)

// Dial calls f(ctx, cfg).
func (f DialerFunc) Dial(ctx context.Context, cfg DialConfig) (Session, error) {
	return f(ctx, cfg)
}

// DialContext runs a blocking session constructor under ctx.
//
// gocql creates sessions synchronously without a context. DialContext runs
// create in a goroutine and returns as soon as ctx is done; a session that
// arrives after that is closed so no handle leaks.
func DialContext(ctx context.Context, create func() (Session, error)) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		session Session
		err     error
	}

	done := make(chan result, 1)
	go func() {
		s, err := create()
		done <- result{session: s, err: err}
	}()

	select {
	case res := <-done:
		return res.session, res.err
	case <-ctx.Done():
		go func() {
			if res := <-done; res.session != nil {
				res.session.Close()
			}
		}()

		return nil, ctx.Err()
	}
}
