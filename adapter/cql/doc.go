// Package cql provides adapter interfaces and implementations for CQL (Cassandra Query Language)
// database drivers.
//
// This package defines the common interfaces that CQL driver adapters must implement,
// allowing cqlboot to work with different versions of gocql.
//
// # Interfaces
//
// The package defines interfaces that mirror the gocql API:
//
//   - Session: Wraps a database session for executing queries
//   - Query: Represents a CQL query with bind parameters
//   - Batch: Groups multiple queries for atomic execution
//   - Iter: Iterates over query results
//   - Dialer: Opens sessions from a DialConfig
//
// # Adapters
//
// Driver-specific adapters are provided in subpackages:
//
//   - [github.com/arloliu/cqlboot/adapter/cql/v1]: Adapter for gocql v1.x
//   - [github.com/arloliu/cqlboot/adapter/cql/v2]: Adapter for apache/cassandra-gocql-driver v2.x
//
// # Usage
//
// Pick the dialer matching your gocql version and hand it to the manager:
//
//	import (
//	    "github.com/arloliu/cqlboot"
//	    v1 "github.com/arloliu/cqlboot/adapter/cql/v1"
//	)
//
//	manager, err := cqlboot.NewManager(v1.NewDialer(), target)
package cql
