// Package testutil provides test doubles and container helpers for cqlboot.
//
// # Fakes
//
//   - [FakeCluster]: an in-memory cql.Dialer that models users, keyspaces and
//     PasswordAuthenticator. It applies CREATE KEYSPACE and CREATE USER
//     statements, counts dials and open handles, and can be made unreachable.
//   - [MockSession], [MockQuery], [MockBatch], [MockIter]: a cql.Session whose
//     statements are recorded and handed to an ExecFunc.
//   - [SlowDialer]: delays every dial of a wrapped dialer.
//   - [RecordingLogger] and [TestMetricsCollector]: capture what the manager
//     logs and counts.
//
// # Usage
//
//	cluster := testutil.NewFakeCluster() // only cassandra/cassandra exists
//	manager, _ := cqlboot.NewManager(cluster, target)
//	_ = manager.Connect(ctx)
//	cluster.HasKeyspace("chatapp") // true
//
// # Integration Test Helpers
//
//   - StartCQLCluster: starts a fresh authenticated ScyllaDB or Cassandra
//     node (requires Docker), for use in TestMain
//   - StartScyllaDB, StartCassandra: the same for a single test
package testutil
