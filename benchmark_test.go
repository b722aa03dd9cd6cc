package cqlboot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arloliu/cqlboot"
	"github.com/arloliu/cqlboot/policy"
	"github.com/arloliu/cqlboot/registry"
	"github.com/arloliu/cqlboot/test/testutil"
	"github.com/arloliu/cqlboot/types"
)

// =============================================================================
// Benchmark Infrastructure
// =============================================================================

// connectedManager returns a manager that already holds a session on a fake
// cluster, so benchmarks measure only the manager's own overhead.
func connectedManager(b *testing.B) *cqlboot.Manager {
	b.Helper()

	m, err := cqlboot.NewManager(provisionedCluster(), chatTarget(),
		cqlboot.WithRetryPolicy(policy.FixedDelay(1, time.Millisecond)))
	if err != nil {
		b.Fatal(err)
	}
	if err := m.Connect(context.Background()); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	return m
}

type benchRepo struct{}

// =============================================================================
// Session Access
// =============================================================================

// BenchmarkCurrentSession measures the read path every consumer takes.
func BenchmarkCurrentSession(b *testing.B) {
	m := connectedManager(b)

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		_, _ = m.CurrentSession()
	}
}

// BenchmarkCurrentSessionParallel measures contention on the session lock.
func BenchmarkCurrentSessionParallel(b *testing.B) {
	m := connectedManager(b)

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = m.Session()
		}
	})
}

// BenchmarkConnectWhenConnected measures the no-op fast path of Connect.
func BenchmarkConnectWhenConnected(b *testing.B) {
	m := connectedManager(b)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		_ = m.Connect(ctx)
	}
}

// =============================================================================
// Connect Sequence
// =============================================================================

// BenchmarkConnectPreProvisioned measures a full connect and shutdown cycle
// against a cluster that needs no provisioning.
func BenchmarkConnectPreProvisioned(b *testing.B) {
	cluster := provisionedCluster()
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		m, err := cqlboot.NewManager(cluster, chatTarget())
		if err != nil {
			b.Fatal(err)
		}
		if err := m.Connect(ctx); err != nil {
			b.Fatal(err)
		}
		_ = m.Shutdown(ctx)
	}
}

// BenchmarkConnectWithBootstrap measures the four-dial provisioning path.
func BenchmarkConnectWithBootstrap(b *testing.B) {
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		m, err := cqlboot.NewManager(testutil.NewFakeCluster(), chatTarget())
		if err != nil {
			b.Fatal(err)
		}
		if err := m.Connect(ctx); err != nil {
			b.Fatal(err)
		}
		_ = m.Shutdown(ctx)
	}
}

// =============================================================================
// Classification and Registry
// =============================================================================

// BenchmarkDefaultClassifier measures classification of a flattened driver
// error, which falls through to message matching.
func BenchmarkDefaultClassifier(b *testing.B) {
	classifier := policy.DefaultClassifier()
	err := errors.New("gocql: unable to create session: Provided username appuser and/or password are incorrect")

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		if classifier.Classify(err) != types.ClassAuthOrKeyspace {
			b.Fatal("misclassified")
		}
	}
}

// BenchmarkRegistryGetParallel measures lookups of an existing component.
func BenchmarkRegistryGetParallel(b *testing.B) {
	reg := registry.New(connectedManager(b))
	ctor := func(registry.SessionProvider) (*benchRepo, error) { return &benchRepo{}, nil }
	if _, err := registry.Get(reg, ctor); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = registry.Get(reg, ctor)
		}
	})
}
