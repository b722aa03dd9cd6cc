package testutil

import (
	"context"
	"testing"
)

// StartScyllaDB starts a fresh authenticated ScyllaDB node for a single
// test. The container is terminated when the test completes.
//
// Note: ScyllaDB requires Linux AIO (aio-max-nr kernel limit). If your system's
// /proc/sys/fs/aio-nr equals /proc/sys/fs/aio-max-nr, ScyllaDB will fail to start.
// To fix: sudo sysctl -w fs.aio-max-nr=1048576
func StartScyllaDB(ctx context.Context, t *testing.T, opts *CQLClusterOptions) (*CQLCluster, error) {
	t.Helper()

	if opts == nil {
		defaultOpts := DefaultCQLClusterOptions()
		opts = &defaultOpts
	}

	cluster, err := startScyllaDBCluster(ctx, *opts)
	if err != nil {
		return nil, err
	}

	t.Cleanup(func() {
		if err := cluster.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate ScyllaDB container: %v", err)
		}
	})

	return cluster, nil
}
