package cqlboot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/arloliu/cqlboot/adapter/cql"
	"github.com/arloliu/cqlboot/types"
)

const connectKey = "connect"

var errShutdown = errors.New("cqlboot: manager shut down")

// Manager owns the cluster session of a process.
//
// It dials the configured keyspace as the configured user, provisions both
// with the default credentials when they do not exist yet, and retries
// connectivity failures according to its retry policy. A Manager is created
// once at startup and torn down with Shutdown at stop.
//
// Thread Safety: All methods are safe for concurrent use. Concurrent Connect
// calls share a single connect sequence.
type Manager struct {
	dialer cql.Dialer
	target types.Target
	cfg    *Config

	group singleflight.Group

	mu        sync.RWMutex
	state     types.ConnectionState
	session   cql.Session
	view      *sharedSession
	sessionID string
	cancel    context.CancelCauseFunc
	done      chan struct{}
}

// NewManager creates a connection manager.
//
// Parameters:
//   - dialer: Opens driver sessions (v1.NewDialer() or v2.NewDialer())
//   - target: Endpoint, keyspace and configured credentials
//   - opts: Optional configuration options
//
// Returns:
//   - *Manager: A manager in the Disconnected state
//   - error: ErrNilDialer, ErrInvalidTarget, or an invalid retry policy
//
// Example:
//
//	target := types.Target{
//	    Endpoint:    types.Endpoint{Host: "localhost", Port: 9042},
//	    Keyspace:    types.NewKeyspace("chatapp"),
//	    Credentials: types.Credentials{Username: "appuser", Password: "apppass"},
//	}
//	manager, err := cqlboot.NewManager(v1.NewDialer(), target,
//	    cqlboot.WithRetryPolicy(policy.FixedDelay(3, time.Second)),
//	)
func NewManager(dialer cql.Dialer, target types.Target, opts ...Option) (*Manager, error) {
	if dialer == nil {
		return nil, types.ErrNilDialer
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.RetryPolicy.Validate(); err != nil {
		return nil, fmt.Errorf("%w: retry policy: %w", types.ErrInvalidTarget, err)
	}
	if cfg.Bootstrap {
		if err := cfg.DefaultCredentials.Validate(); err != nil {
			return nil, fmt.Errorf("default credentials: %w", err)
		}
	}

	cfg.Metrics.SetConnectionState(types.Disconnected)

	return &Manager{
		dialer: dialer,
		target: target,
		cfg:    cfg,
		state:  types.Disconnected,
	}, nil
}

// Connect establishes the session.
//
// If the manager is already connected, Connect returns nil without dialing.
// Concurrent callers share one connect sequence and observe the same result.
// The sequence runs under the context of the caller that started it; when
// any caller's context ends while waiting, that caller gets an error wrapping
// ErrAborted and the context error, and a sequence started by someone else
// keeps running. Ending the starting caller's context aborts the sequence
// for every waiter, so pass a context scoped to process startup rather than
// to a single request.
//
// Returns:
//   - error: nil, or a *types.ConnectionError whose Kind is ErrExhausted,
//     ErrProvisioningFailed or ErrAborted
func (m *Manager) Connect(ctx context.Context) error {
	if m.Ready() {
		return nil
	}

	ch := m.group.DoChan(connectKey, func() (any, error) {
		return nil, m.connect(ctx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return &types.ConnectionError{Kind: types.ErrAborted, Stage: types.StageWait, Cause: ctx.Err()}
	}
}

// Shutdown cancels an in-flight connect, waits for it to release its
// handles, closes the session and moves the manager to Disconnected.
//
// Shutdown is idempotent and always returns nil. When ctx ends before the
// in-flight connect has unwound, the wait is abandoned and logged.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	session, sessionID := m.session, m.sessionID
	m.session, m.view, m.sessionID = nil, nil, ""
	from := m.state
	m.state = types.Disconnected
	if cancel != nil {
		cancel(errShutdown)
	}
	m.mu.Unlock()

	m.notify(from, types.Disconnected)

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			m.cfg.Logger.Warn("stopped waiting for in-flight connect",
				"stage", types.StageShutdown, "outcome", "timeout", "error", ctx.Err())
		}
	}

	if session == nil {
		m.cfg.Logger.Debug("nothing to shut down", "stage", types.StageShutdown, "outcome", "noop")
		return nil
	}

	m.closeSession(session, sessionID)

	return nil
}

// CurrentSession returns the active session, or (nil, false) when the
// manager is not connected. It never waits for a connect in progress.
//
// The returned session is shared: its Close method does nothing, and it
// reports Closed once the manager has shut down.
func (m *Manager) CurrentSession() (cql.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.view == nil {
		return nil, false
	}

	return m.view, true
}

// Session is like CurrentSession but returns ErrNotConnected when no
// session is available.
func (m *Manager) Session() (cql.Session, error) {
	session, ok := m.CurrentSession()
	if !ok {
		return nil, types.ErrNotConnected
	}

	return session, nil
}

// State returns the current connection state.
func (m *Manager) State() types.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

// Ready reports whether a session is available.
func (m *Manager) Ready() bool {
	return m.State() == types.Connected
}

// Target returns the configured target.
func (m *Manager) Target() types.Target {
	return m.target
}

// SessionID returns the correlation ID of the current session, or "" when
// not connected.
func (m *Manager) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sessionID
}

// connect runs the retry loop. It is only ever executed by one goroutine at
// a time through the singleflight group.
func (m *Manager) connect(parent context.Context) error {
	m.mu.Lock()
	if m.state == types.Connected && m.session != nil {
		m.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancelCause(parent)
	done := make(chan struct{})
	m.cancel, m.done = cancel, done
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.cancel, m.done = nil, nil
		m.mu.Unlock()
		cancel(nil)
		close(done)
	}()

	log := &connectLogger{
		logger: m.cfg.Logger,
		fields: []any{
			"connect_id", uuid.NewString(),
			"endpoint", m.target.Endpoint.String(),
			"keyspace", m.target.Keyspace.Name,
		},
	}
	log.Info("starting connect sequence", "retry_policy", m.cfg.RetryPolicy.String())

	start := time.Now()
	defer func() {
		m.cfg.Metrics.ObserveConnectDuration(time.Since(start).Seconds())
	}()

	retry := m.cfg.RetryPolicy.Backoff(ctx)
	for attempt := 1; ; attempt++ {
		m.cfg.Metrics.IncConnectAttempt()

		session, stage, err := m.attempt(ctx, log, attempt)
		if err == nil {
			return m.install(ctx, log, session, stage, attempt)
		}
		if ctx.Err() != nil {
			return m.abort(ctx, log, stage, attempt)
		}

		var connErr *types.ConnectionError
		if errors.As(err, &connErr) {
			m.transition(ctx, types.Failed)
			return connErr
		}

		m.transition(ctx, types.Failed)

		delay := retry.NextDelay()
		if !retry.Ongoing() {
			if ctx.Err() != nil {
				return m.abort(ctx, log, stage, attempt)
			}

			m.cfg.Metrics.IncExhausted()
			log.Error("giving up", "stage", types.StageGiveUp, "outcome", "exhausted",
				"attempts", attempt, "error", err)

			return &types.ConnectionError{Kind: types.ErrExhausted, Stage: stage, Attempt: attempt, Cause: err}
		}

		log.Warn("retrying", "stage", types.StageRetry, "outcome", "retrying",
			"attempt", attempt, "next_attempt", attempt+1, "delay", delay, "error", err)

		if !sleep(ctx, delay) {
			return m.abort(ctx, log, types.StageRetry, attempt)
		}
	}
}

// attempt runs steps 1 to 4 of the connect sequence once and returns the
// stage it ended at.
func (m *Manager) attempt(ctx context.Context, log *connectLogger, attempt int) (cql.Session, types.Stage, error) {
	m.transition(ctx, types.Connecting)

	creds := m.target.Credentials
	keyspace := m.target.Keyspace.Name
	stage := types.StageConfiguredCredentials

	log.Info("connecting with configured credentials",
		"stage", stage, "outcome", "attempting", "attempt", attempt, "user", creds.String())

	session, class, err := m.dial(ctx, creds, keyspace)
	if err == nil {
		return session, stage, nil
	}

	stageErr := &types.StageError{Stage: stage, Class: class, Cause: err}
	if class == types.ClassConnectivity {
		log.Warn("connect failed", "stage", stage, "outcome", "failed", "attempt", attempt, "error", err)
		return nil, stage, stageErr
	}

	if !m.cfg.Bootstrap {
		log.Error("configured credentials rejected and bootstrap disabled",
			"stage", stage, "outcome", "fatal", "attempt", attempt, "error", err)

		return nil, stage, &types.ConnectionError{
			Kind:    types.ErrProvisioningFailed,
			Stage:   stage,
			Attempt: attempt,
			Cause:   stageErr,
		}
	}

	log.Warn("configured credentials rejected or keyspace missing",
		"stage", stage, "outcome", "fallback", "attempt", attempt, "error", err)

	if err := m.bootstrap(ctx, log, attempt); err != nil {
		var connErr *types.ConnectionError
		var failed *types.StageError
		switch {
		case errors.As(err, &connErr):
			stage = connErr.Stage
		case errors.As(err, &failed):
			stage = failed.Stage
		}

		return nil, stage, err
	}

	stage = types.StageReconnect
	m.transition(ctx, types.Connecting)
	log.Info("reconnecting with configured credentials",
		"stage", stage, "outcome", "attempting", "attempt", attempt, "user", creds.String())

	session, class, err = m.dial(ctx, creds, keyspace)
	if err == nil {
		return session, stage, nil
	}

	stageErr = &types.StageError{Stage: stage, Class: class, Cause: err}
	if class == types.ClassConnectivity {
		log.Warn("reconnect failed", "stage", stage, "outcome", "failed", "attempt", attempt, "error", err)
		return nil, stage, stageErr
	}

	// Rejected again after a completed bootstrap: the provisioned identity
	// does not work, so another round would loop forever.
	return nil, stage, m.provisioningFailed(ctx, log, stage, attempt, stageErr)
}

// dial opens a session and classifies a failure. A cancelled context is
// always ClassConnectivity.
func (m *Manager) dial(ctx context.Context, creds types.Credentials, keyspace string) (cql.Session, types.FailureClass, error) {
	dialCtx := ctx
	if m.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, m.cfg.DialTimeout)
		defer cancel()
	}

	session, err := m.dialer.Dial(dialCtx, m.dialConfig(creds, keyspace))
	if err == nil && session == nil {
		err = errNilSession
	}
	if err == nil {
		return session, types.ClassConnectivity, nil
	}

	class := types.ClassConnectivity
	if ctx.Err() == nil {
		class = m.cfg.Classifier.Classify(err)
	}
	m.cfg.Metrics.IncConnectError(class)

	return nil, class, err
}

func (m *Manager) dialConfig(creds types.Credentials, keyspace string) cql.DialConfig {
	return cql.DialConfig{
		Endpoint:                 m.target.Endpoint,
		Credentials:              creds,
		Keyspace:                 keyspace,
		ConnectTimeout:           m.cfg.DialTimeout,
		Timeout:                  m.cfg.StatementTimeout,
		Consistency:              m.cfg.Consistency,
		ProtoVersion:             m.cfg.ProtoVersion,
		DisableInitialHostLookup: m.cfg.DisableInitialHostLookup,
		TLS:                      m.cfg.TLS,
	}
}

// install publishes a freshly dialed session unless the sequence was
// cancelled in the meantime.
func (m *Manager) install(ctx context.Context, log *connectLogger, session cql.Session, stage types.Stage, attempt int) error {
	sessionID := uuid.NewString()

	m.mu.Lock()
	if ctx.Err() != nil {
		m.mu.Unlock()
		session.Close()

		return m.abort(ctx, log, stage, attempt)
	}
	from := m.state
	m.session = session
	m.view = &sharedSession{session: session}
	m.sessionID = sessionID
	m.state = types.Connected
	m.mu.Unlock()

	m.notify(from, types.Connected)
	m.cfg.Metrics.IncConnectSuccess()
	log.Info("connected", "stage", stage, "outcome", "succeeded", "attempt", attempt,
		"session_id", sessionID, "user", m.target.Credentials.String())

	return nil
}

func (m *Manager) abort(ctx context.Context, log *connectLogger, stage types.Stage, attempt int) error {
	m.transition(ctx, types.Disconnected)
	m.cfg.Metrics.IncAborted()

	cause := context.Cause(ctx)
	log.Warn("connect aborted", "stage", stage, "outcome", "aborted", "attempt", attempt, "error", cause)

	return &types.ConnectionError{Kind: types.ErrAborted, Stage: stage, Attempt: attempt, Cause: cause}
}

// transition moves to state to. Once ctx is cancelled only the move to
// Disconnected is applied, so a sequence stopped by Shutdown cannot
// overwrite the state Shutdown left behind.
func (m *Manager) transition(ctx context.Context, to types.ConnectionState) {
	m.mu.Lock()
	if ctx.Err() != nil && to != types.Disconnected {
		m.mu.Unlock()
		return
	}
	from := m.state
	m.state = to
	m.mu.Unlock()

	m.notify(from, to)
}

func (m *Manager) notify(from, to types.ConnectionState) {
	if from == to {
		return
	}

	m.cfg.Metrics.SetConnectionState(to)
	if m.cfg.OnStateChange != nil {
		m.cfg.OnStateChange(from, to)
	}
}

// closeSession closes the real session. A panicking driver is logged
// instead of taking the process down during shutdown.
func (m *Manager) closeSession(session cql.Session, sessionID string) {
	defer func() {
		if r := recover(); r != nil {
			m.cfg.Logger.Error("error closing session",
				"stage", types.StageShutdown, "outcome", "failed", "session_id", sessionID, "error", r)
		}
	}()

	session.Close()
	m.cfg.Logger.Info("session closed", "stage", types.StageShutdown, "outcome", "succeeded", "session_id", sessionID)
}

// sleep waits for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// sharedSession is the view handed to consumers. Only the manager closes
// the real session.
type sharedSession struct {
	session cql.Session
}

var _ cql.Session = (*sharedSession)(nil)

func (s *sharedSession) Query(stmt string, values ...any) cql.Query {
	return s.session.Query(stmt, values...)
}

func (s *sharedSession) Batch(kind cql.BatchType) cql.Batch {
	return s.session.Batch(kind)
}

func (s *sharedSession) Closed() bool {
	return s.session.Closed()
}

// Close is a no-op; call Manager.Shutdown instead.
func (s *sharedSession) Close() {}

// connectLogger prefixes every line of one connect sequence with its
// correlation fields.
type connectLogger struct {
	logger types.Logger
	fields []any
}

func (l *connectLogger) with(keysAndValues []any) []any {
	out := make([]any, 0, len(l.fields)+len(keysAndValues))
	out = append(out, l.fields...)

	return append(out, keysAndValues...)
}

func (l *connectLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, l.with(keysAndValues)...)
}

func (l *connectLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, l.with(keysAndValues)...)
}

func (l *connectLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, l.with(keysAndValues)...)
}
