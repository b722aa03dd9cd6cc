// Package v2 provides an adapter for the Apache Cassandra gocql driver (v2.x).
//
// Usage mirrors the v1 adapter:
//
//	manager, err := cqlboot.NewManager(v2.NewDialer(), target)
//
// The v2 driver supports context on every execution method, so queries and
// batches call ExecContext directly instead of attaching a context first.
package v2
