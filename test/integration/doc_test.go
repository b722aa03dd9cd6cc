// Package integration_test runs the connection manager against real
// Cassandra-compatible nodes.
//
// A single fresh node with PasswordAuthenticator is started in TestMain.
// Every test provisions its own keyspace and user, so from each test's point
// of view the cluster is fresh.
//
// # Running Integration Tests
//
//	go test -short ./...           # Skips integration tests
//	go test ./test/integration/... # Runs integration tests (requires Docker)
//
// Set SKIP_INTEGRATION_TESTS=1 to skip container setup entirely.
package integration_test
