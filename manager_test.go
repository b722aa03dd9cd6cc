package cqlboot_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/cqlboot"
	"github.com/arloliu/cqlboot/adapter/cql"
	"github.com/arloliu/cqlboot/policy"
	"github.com/arloliu/cqlboot/test/testutil"
	"github.com/arloliu/cqlboot/types"
)

func chatTarget() types.Target {
	return types.Target{
		Endpoint:    types.Endpoint{Host: "localhost", Port: 9042},
		Keyspace:    types.NewKeyspace("chatapp"),
		Credentials: types.Credentials{Username: "appuser", Password: "apppass"},
	}
}

func provisionedCluster() *testutil.FakeCluster {
	cluster := testutil.NewFakeCluster()
	cluster.AddKeyspace("chatapp")
	cluster.AddUser("appuser", "apppass", true)

	return cluster
}

func newManager(t *testing.T, dialer cql.Dialer, opts ...cqlboot.Option) *cqlboot.Manager {
	t.Helper()

	opts = append([]cqlboot.Option{cqlboot.WithRetryPolicy(policy.FixedDelay(3, time.Millisecond))}, opts...)
	m, err := cqlboot.NewManager(dialer, chatTarget(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	return m
}

func TestNewManager_Validation(t *testing.T) {
	_, err := cqlboot.NewManager(nil, chatTarget())
	require.ErrorIs(t, err, types.ErrNilDialer)

	target := chatTarget()
	target.Keyspace = types.NewKeyspace("1bad")
	_, err = cqlboot.NewManager(testutil.NewFakeCluster(), target)
	require.ErrorIs(t, err, types.ErrInvalidTarget)

	_, err = cqlboot.NewManager(testutil.NewFakeCluster(), chatTarget(),
		cqlboot.WithRetryPolicy(policy.FixedDelay(0, time.Second)))
	require.ErrorIs(t, err, types.ErrInvalidTarget)

	_, err = cqlboot.NewManager(testutil.NewFakeCluster(), chatTarget(),
		cqlboot.WithDefaultCredentials(types.Credentials{}))
	require.ErrorIs(t, err, types.ErrInvalidTarget)

	m, err := cqlboot.NewManager(testutil.NewFakeCluster(), chatTarget(),
		cqlboot.WithBootstrap(false), cqlboot.WithDefaultCredentials(types.Credentials{}))
	require.NoError(t, err)
	require.Equal(t, types.Disconnected, m.State())
	require.Equal(t, chatTarget(), m.Target())
}

func TestManager_PreProvisionedClusterDialsOnce(t *testing.T) {
	cluster := provisionedCluster()
	logger := testutil.NewRecordingLogger()
	m := newManager(t, cluster, cqlboot.WithLogger(logger))

	require.NoError(t, m.Connect(context.Background()))

	assert.Equal(t, 1, cluster.Dials())
	assert.Empty(t, cluster.Statements(), "no provisioning on a provisioned cluster")
	assert.Equal(t, types.Connected, m.State())
	assert.True(t, m.Ready())
	assert.NotEmpty(t, m.SessionID())
	assert.Empty(t, logger.WithField("stage", types.StageDefaultCredentials))

	dial := cluster.DialConfigs()[0]
	assert.Equal(t, "appuser", dial.Credentials.Username)
	assert.Equal(t, "chatapp", dial.Keyspace)

	session, ok := m.CurrentSession()
	require.True(t, ok)
	require.NotNil(t, session)
	require.NoError(t, session.Query("SELECT now() FROM system.local").ExecContext(context.Background()))
}

func TestManager_FreshClusterBootstrapsOnce(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	logger := testutil.NewRecordingLogger()
	metrics := testutil.NewTestMetricsCollector()
	m := newManager(t, cluster, cqlboot.WithLogger(logger), cqlboot.WithMetrics(metrics))

	require.NoError(t, m.Connect(context.Background()))
	require.Equal(t, types.Connected, m.State())

	dials := cluster.DialConfigs()
	require.Len(t, dials, 4)
	assert.Equal(t, "appuser", dials[0].Credentials.Username)
	assert.Equal(t, "chatapp", dials[0].Keyspace)
	assert.Equal(t, "cassandra", dials[1].Credentials.Username)
	assert.Empty(t, dials[1].Keyspace, "first bootstrap handle is unbound")
	assert.Equal(t, "cassandra", dials[2].Credentials.Username)
	assert.Equal(t, "chatapp", dials[2].Keyspace)
	assert.Equal(t, "appuser", dials[3].Credentials.Username)
	assert.Equal(t, "chatapp", dials[3].Keyspace)

	assert.Equal(t, []string{
		"CREATE KEYSPACE IF NOT EXISTS chatapp WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}",
		"CREATE USER IF NOT EXISTS 'appuser' WITH PASSWORD 'apppass' SUPERUSER",
	}, cluster.Statements())

	assert.Equal(t, 1, cluster.OpenSessions(), "bootstrap handles are released")
	assert.Equal(t, int64(1), metrics.BootstrapTotal())
	assert.Equal(t, int64(1), metrics.ConnectSuccess())
	assert.Equal(t, int64(1), metrics.ConnectErrorCount(types.ClassAuthOrKeyspace))
	assert.Equal(t, types.Connected, metrics.LastState())

	stages := logger.Stages()
	assert.Subset(t, stages, []types.Stage{
		types.StageConfiguredCredentials,
		types.StageDefaultCredentials,
		types.StageCreateKeyspace,
		types.StageBindKeyspace,
		types.StageCreateUser,
		types.StageReconnect,
	})

	// Second Connect is a no-op.
	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, 4, cluster.Dials())
}

func TestManager_ScenarioFreshChatCluster(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	m := newManager(t, cluster)

	require.NoError(t, m.Connect(context.Background()))

	require.True(t, cluster.HasKeyspace("chatapp"))
	assert.Equal(t, "{'class': 'SimpleStrategy', 'replication_factor': 1}", cluster.KeyspaceReplication("chatapp"))

	user, ok := cluster.User("appuser")
	require.True(t, ok)
	assert.True(t, user.Superuser)
	assert.Equal(t, "apppass", user.Password)
	assert.Equal(t, types.Connected, m.State())
}

func TestManager_ProvisioningIsIdempotent(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	cluster.AddKeyspace("chatapp") // keyspace exists, user does not

	m := newManager(t, cluster)
	require.NoError(t, m.Connect(context.Background()))
	assert.Len(t, cluster.Statements(), 2, "IF NOT EXISTS statements are reissued")
	require.NoError(t, m.Shutdown(context.Background()))

	// A new process against the same cluster connects directly.
	again := newManager(t, cluster)
	require.NoError(t, again.Connect(context.Background()))
	assert.Len(t, cluster.Statements(), 2)
	assert.Equal(t, 5, cluster.Dials())
}

func TestManager_UnreachableExhaustsRetries(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	cluster.SetReachable(false)
	logger := testutil.NewRecordingLogger()
	metrics := testutil.NewTestMetricsCollector()

	var sawSession bool
	var m *cqlboot.Manager
	m = newManager(t, cluster,
		cqlboot.WithRetryPolicy(policy.FixedDelay(3, 10*time.Millisecond)),
		cqlboot.WithLogger(logger),
		cqlboot.WithMetrics(metrics),
		cqlboot.WithOnStateChange(func(_, _ types.ConnectionState) {
			if _, ok := m.CurrentSession(); ok {
				sawSession = true
			}
		}),
	)

	start := time.Now()
	err := m.Connect(context.Background())
	elapsed := time.Since(start)

	require.ErrorIs(t, err, types.ErrExhausted)
	require.ErrorIs(t, err, types.ErrConnectivity)
	require.ErrorIs(t, err, testutil.ErrUnreachable)
	require.NotErrorIs(t, err, types.ErrProvisioningFailed)

	var connErr *types.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, 3, connErr.Attempt)
	assert.Equal(t, types.StageConfiguredCredentials, connErr.Stage)

	assert.Equal(t, 3, cluster.Dials())
	assert.Len(t, logger.WithField("outcome", "retrying"), 2, "no delay after the last attempt")
	assert.Len(t, logger.WithField("stage", types.StageGiveUp), 1)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Empty(t, cluster.Statements(), "connectivity failures never bootstrap")

	assert.False(t, sawSession)
	_, ok := m.CurrentSession()
	assert.False(t, ok)
	assert.Equal(t, types.Failed, m.State())
	assert.Equal(t, int64(1), metrics.Exhausted())
	assert.Equal(t, int64(3), metrics.ConnectAttempts())
}

func TestManager_RecoversFromTransientConnectivity(t *testing.T) {
	cluster := provisionedCluster()
	cluster.SetDialHook(func(_ context.Context, n int, _ cql.DialConfig) (cql.Session, bool, error) {
		if n <= 2 {
			return nil, true, testutil.ErrUnreachable
		}

		return nil, false, nil
	})
	m := newManager(t, cluster)

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, 3, cluster.Dials())
	assert.Equal(t, types.Connected, m.State())
}

func TestManager_ShutdownBeforeConnect(t *testing.T) {
	m := newManager(t, testutil.NewFakeCluster())

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, types.Disconnected, m.State())

	_, err := m.Session()
	require.ErrorIs(t, err, types.ErrNotConnected)
}

func TestManager_ShutdownClosesSession(t *testing.T) {
	cluster := provisionedCluster()
	m := newManager(t, cluster)
	require.NoError(t, m.Connect(context.Background()))

	session, err := m.Session()
	require.NoError(t, err)
	require.False(t, session.Closed())

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, 0, cluster.OpenSessions())
	assert.True(t, session.Closed(), "views observe the shutdown")
	assert.Equal(t, types.Disconnected, m.State())
	assert.Empty(t, m.SessionID())

	_, ok := m.CurrentSession()
	assert.False(t, ok)

	require.NoError(t, m.Shutdown(context.Background()))

	// The manager can connect again after a shutdown.
	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, 1, cluster.OpenSessions())
}

func TestManager_SharedSessionCloseIsNoop(t *testing.T) {
	cluster := provisionedCluster()
	m := newManager(t, cluster)
	require.NoError(t, m.Connect(context.Background()))

	session, ok := m.CurrentSession()
	require.True(t, ok)
	session.Close()

	assert.False(t, session.Closed())
	assert.Equal(t, 1, cluster.OpenSessions())
	assert.True(t, m.Ready())
}

func TestManager_ConcurrentConnectSharesOneAttempt(t *testing.T) {
	cluster := provisionedCluster()
	cluster.BlockDials()
	m := newManager(t, cluster)

	const callers = 10
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.Connect(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return cluster.Dials() == 1 }, time.Second, time.Millisecond)
	// Let the remaining callers reach the shared attempt.
	time.Sleep(20 * time.Millisecond)
	cluster.ReleaseDials()
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, cluster.Dials())
	assert.Equal(t, 1, cluster.MaxOpenSessions())
	assert.Equal(t, types.Connected, m.State())
}

func TestManager_StatementFailureIsNotRetried(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	cluster.FailStatements("CREATE USER", errors.New("Only superusers are allowed to perform CREATE USER queries"))
	metrics := testutil.NewTestMetricsCollector()
	m := newManager(t, cluster, cqlboot.WithMetrics(metrics))

	err := m.Connect(context.Background())
	require.ErrorIs(t, err, types.ErrProvisioningFailed)
	require.NotErrorIs(t, err, types.ErrExhausted)

	var connErr *types.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, types.StageCreateUser, connErr.Stage)
	assert.Equal(t, 1, connErr.Attempt)
	assert.NotContains(t, err.Error(), "apppass")

	assert.Equal(t, 3, cluster.Dials())
	assert.Equal(t, 0, cluster.OpenSessions())
	assert.Equal(t, types.Failed, m.State())
	assert.Equal(t, int64(1), metrics.BootstrapErrors())
}

func TestManager_KeyspaceStatementFailure(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	cluster.FailStatements("CREATE KEYSPACE", errors.New("Unable to use given strategy class"))
	m := newManager(t, cluster)

	err := m.Connect(context.Background())
	require.ErrorIs(t, err, types.ErrProvisioningFailed)

	var connErr *types.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, types.StageCreateKeyspace, connErr.Stage)
	assert.Equal(t, 2, cluster.Dials())
	assert.Equal(t, 0, cluster.OpenSessions())
}

func TestManager_DefaultCredentialsRejected(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	cluster.RemoveUser("cassandra")
	m := newManager(t, cluster)

	err := m.Connect(context.Background())
	require.ErrorIs(t, err, types.ErrProvisioningFailed)
	require.ErrorIs(t, err, types.ErrAuthOrKeyspaceMissing)

	var connErr *types.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, types.StageDefaultCredentials, connErr.Stage)
	assert.Equal(t, 2, cluster.Dials())
}

func TestManager_BootstrapDisabledFailsFast(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	m := newManager(t, cluster, cqlboot.WithBootstrap(false))

	err := m.Connect(context.Background())
	require.ErrorIs(t, err, types.ErrProvisioningFailed)
	assert.Equal(t, 1, cluster.Dials())
	assert.Empty(t, cluster.Statements())
}

func TestManager_RejectedAfterBootstrapDoesNotRecurse(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	cluster.SetDialHook(func(_ context.Context, n int, cfg cql.DialConfig) (cql.Session, bool, error) {
		if n == 4 {
			return nil, true, &testutil.RequestError{
				ErrCode: testutil.CodeBadCredentials,
				Msg:     fmt.Sprintf("Provided username %s and/or password are incorrect", cfg.Credentials.Username),
			}
		}

		return nil, false, nil
	})
	m := newManager(t, cluster)

	err := m.Connect(context.Background())
	require.ErrorIs(t, err, types.ErrProvisioningFailed)

	var connErr *types.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, types.StageReconnect, connErr.Stage)
	assert.Equal(t, 4, cluster.Dials(), "exactly one bootstrap round")
	assert.Equal(t, 0, cluster.OpenSessions())
}

func TestManager_ConnectivityDuringBootstrapIsRetried(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	cluster.SetDialHook(func(_ context.Context, n int, _ cql.DialConfig) (cql.Session, bool, error) {
		if n == 2 {
			return nil, true, testutil.ErrUnreachable
		}

		return nil, false, nil
	})
	m := newManager(t, cluster)

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, 6, cluster.Dials())
	assert.Equal(t, types.Connected, m.State())
	assert.Equal(t, 1, cluster.OpenSessions())
}

func TestManager_ShutdownAbortsRetryDelay(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	cluster.SetReachable(false)
	metrics := testutil.NewTestMetricsCollector()
	m := newManager(t, cluster,
		cqlboot.WithRetryPolicy(policy.FixedDelay(5, time.Hour)),
		cqlboot.WithMetrics(metrics),
	)

	result := make(chan error, 1)
	go func() { result <- m.Connect(context.Background()) }()

	require.Eventually(t, func() bool {
		return cluster.Dials() == 1 && m.State() == types.Failed
	}, time.Second, time.Millisecond)

	require.NoError(t, m.Shutdown(context.Background()))

	select {
	case err := <-result:
		require.ErrorIs(t, err, types.ErrAborted)
		require.NotErrorIs(t, err, types.ErrExhausted)
	case <-time.After(5 * time.Second):
		t.Fatal("connect did not return after shutdown")
	}

	assert.Equal(t, types.Disconnected, m.State())
	assert.Equal(t, 1, cluster.Dials())
	assert.Equal(t, int64(1), metrics.Aborted())
}

func TestManager_CallerCancellationAborts(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	cluster.SetReachable(false)
	m := newManager(t, cluster, cqlboot.WithRetryPolicy(policy.FixedDelay(5, time.Hour)))

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- m.Connect(ctx) }()

	require.Eventually(t, func() bool { return cluster.Dials() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-result:
		require.ErrorIs(t, err, types.ErrAborted)
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("connect did not return after cancellation")
	}

	require.Eventually(t, func() bool { return m.State() == types.Disconnected }, time.Second, time.Millisecond)
	_, ok := m.CurrentSession()
	assert.False(t, ok)
}

func TestManager_WaiterCancellationLeavesAttemptRunning(t *testing.T) {
	cluster := provisionedCluster()
	cluster.BlockDials()
	m := newManager(t, cluster)

	leader := make(chan error, 1)
	go func() { leader <- m.Connect(context.Background()) }()
	require.Eventually(t, func() bool { return cluster.Dials() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := m.Connect(ctx)
	require.ErrorIs(t, err, types.ErrAborted)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	cluster.ReleaseDials()
	require.NoError(t, <-leader)
	assert.Equal(t, types.Connected, m.State())
	assert.Equal(t, 1, cluster.Dials())
}

func TestManager_StartingCallerCancellationAbortsWaiters(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	cluster.SetReachable(false)
	m := newManager(t, cluster, cqlboot.WithRetryPolicy(policy.FixedDelay(5, time.Hour)))

	ctx, cancel := context.WithCancel(context.Background())
	leader := make(chan error, 1)
	go func() { leader <- m.Connect(ctx) }()
	require.Eventually(t, func() bool { return cluster.Dials() == 1 }, time.Second, time.Millisecond)

	waiter := make(chan error, 1)
	go func() { waiter <- m.Connect(context.Background()) }()
	// give the waiter time to join the in-flight sequence
	time.Sleep(50 * time.Millisecond)
	cancel()

	for _, ch := range []chan error{leader, waiter} {
		select {
		case err := <-ch:
			require.ErrorIs(t, err, types.ErrAborted)
			require.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("connect did not return after the starting caller was cancelled")
		}
	}
	assert.Equal(t, 1, cluster.Dials())
}

func TestManager_DialTimeoutIsConnectivity(t *testing.T) {
	cluster := provisionedCluster()
	cluster.BlockDials()
	m := newManager(t, cluster,
		cqlboot.WithRetryPolicy(policy.FixedDelay(2, time.Millisecond)),
		cqlboot.WithDialTimeout(10*time.Millisecond),
	)

	err := m.Connect(context.Background())
	require.ErrorIs(t, err, types.ErrExhausted)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, cluster.Dials())
}

func TestManager_NilSessionFromDialer(t *testing.T) {
	dialer := cql.DialerFunc(func(context.Context, cql.DialConfig) (cql.Session, error) {
		return nil, nil
	})
	m := newManager(t, dialer, cqlboot.WithRetryPolicy(policy.FixedDelay(2, time.Millisecond)))

	err := m.Connect(context.Background())
	require.ErrorIs(t, err, types.ErrExhausted)
}

func TestManager_StateTransitions(t *testing.T) {
	type change struct{ from, to types.ConnectionState }

	var mu sync.Mutex
	var changes []change
	m := newManager(t, testutil.NewFakeCluster(), cqlboot.WithOnStateChange(func(from, to types.ConnectionState) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, change{from, to})
	}))

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []change{
		{types.Disconnected, types.Connecting},
		{types.Connecting, types.Bootstrapping},
		{types.Bootstrapping, types.Connecting},
		{types.Connecting, types.Connected},
		{types.Connected, types.Disconnected},
	}, changes)
}

func TestManager_DialConfigCarriesOptions(t *testing.T) {
	cluster := provisionedCluster()
	tls := &cql.TLSConfig{CaPath: "/etc/cassandra/ca.pem"}
	m := newManager(t, cluster,
		cqlboot.WithDialTimeout(3*time.Second),
		cqlboot.WithStatementTimeout(4*time.Second),
		cqlboot.WithConsistency(cql.LocalQuorum),
		cqlboot.WithProtoVersion(4),
		cqlboot.WithDisableInitialHostLookup(true),
		cqlboot.WithTLS(tls),
	)

	require.NoError(t, m.Connect(context.Background()))

	dial := cluster.DialConfigs()[0]
	assert.Equal(t, types.Endpoint{Host: "localhost", Port: 9042}, dial.Endpoint)
	assert.Equal(t, 3*time.Second, dial.ConnectTimeout)
	assert.Equal(t, 4*time.Second, dial.Timeout)
	assert.Equal(t, cql.LocalQuorum, dial.Consistency)
	assert.Equal(t, 4, dial.ProtoVersion)
	assert.True(t, dial.DisableInitialHostLookup)
	assert.Same(t, tls, dial.TLS)
}

func TestManager_CustomClassifier(t *testing.T) {
	cluster := testutil.NewFakeCluster()
	// Treat every failure as connectivity: a fresh cluster then never bootstraps.
	m := newManager(t, cluster, cqlboot.WithClassifier(policy.ClassifierFunc(func(error) types.FailureClass {
		return types.ClassConnectivity
	})))

	err := m.Connect(context.Background())
	require.ErrorIs(t, err, types.ErrExhausted)
	assert.Equal(t, 3, cluster.Dials())
	assert.Empty(t, cluster.Statements())
}

func TestManager_LogsCorrelationIDs(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	m := newManager(t, provisionedCluster(), cqlboot.WithLogger(logger))
	require.NoError(t, m.Connect(context.Background()))

	var connectID any
	for _, e := range logger.Entries() {
		if e.Fields["connect_id"] == nil {
			continue
		}
		if connectID == nil {
			connectID = e.Fields["connect_id"]
		}
		assert.Equal(t, connectID, e.Fields["connect_id"], "one connect_id per sequence")
	}
	require.NotNil(t, connectID)

	connected := logger.WithField("outcome", "succeeded")
	require.NotEmpty(t, connected)
	assert.Equal(t, m.SessionID(), connected[len(connected)-1].Field("session_id"))
}

func TestManager_SlowClusterWithinDialTimeout(t *testing.T) {
	cluster := provisionedCluster()
	m := newManager(t, testutil.NewSlowDialer(cluster, 5*time.Millisecond),
		cqlboot.WithDialTimeout(time.Second),
	)

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, types.Connected, m.State())
	assert.Equal(t, 1, cluster.Dials())
}

func TestManager_SlowClusterRecoversOnceFaster(t *testing.T) {
	cluster := provisionedCluster()
	slow := testutil.NewSlowDialer(cluster, time.Hour)
	m := newManager(t, slow,
		cqlboot.WithRetryPolicy(policy.FixedDelay(2, time.Millisecond)),
		cqlboot.WithDialTimeout(10*time.Millisecond),
	)

	err := m.Connect(context.Background())
	require.ErrorIs(t, err, types.ErrExhausted)
	assert.Equal(t, 0, cluster.Dials(), "dials never reached the cluster")

	slow.SetDelay(0)
	require.NoError(t, m.Connect(context.Background()))
	assert.True(t, m.Ready())
}
