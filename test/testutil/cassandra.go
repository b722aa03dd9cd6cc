package testutil

import (
	"context"
	"testing"
)

// StartCassandra starts a fresh authenticated Cassandra node for a single
// test. The container is terminated when the test completes.
//
// This is preferred over ScyllaDB for environments with limited AIO resources.
func StartCassandra(ctx context.Context, t *testing.T, opts *CQLClusterOptions) (*CQLCluster, error) {
	t.Helper()

	if opts == nil {
		defaultOpts := DefaultCQLClusterOptions()
		opts = &defaultOpts
	}

	cluster, err := startCassandraCluster(ctx, *opts)
	if err != nil {
		return nil, err
	}

	t.Cleanup(func() {
		if err := cluster.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate Cassandra container: %v", err)
		}
	})

	return cluster, nil
}
