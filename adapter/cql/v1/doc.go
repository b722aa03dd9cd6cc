// Package v1 provides an adapter for gocql v1.x to work with the cqlboot library.
//
// This adapter wraps gocql sessions, queries, batches, and iterators to implement
// the cqlboot CQL interfaces, and provides a Dialer that turns a cql.DialConfig
// into a gocql.ClusterConfig.
//
// # Usage
//
//	manager, err := cqlboot.NewManager(v1.NewDialer(), target)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Settings outside DialConfig can be applied with a configurer:
//
//	dialer := v1.NewDialer(v1.WithClusterConfigurer(func(c *gocql.ClusterConfig) {
//	    c.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: 2}
//	}))
//
// # Type Conversions
//
//   - [ToGocqlConsistency]: Converts cql Consistency to gocql.Consistency
//   - [FromGocqlConsistency]: Converts gocql.Consistency to cql Consistency
//   - [ParseConsistency]: Parses a consistency name
//   - [UnwrapSession]: Returns the underlying gocql.Session
//
// # Thread Safety
//
// All adapter types are safe for concurrent use, matching gocql's thread safety guarantees.
package v1
