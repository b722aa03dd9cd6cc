package testutil

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/arloliu/cqlboot/adapter/cql"
)

// CQL protocol error codes used by FakeCluster.
const (
	CodeBadCredentials = 0x0100
	CodeInvalid        = 0x2200
)

var (
	// ErrUnreachable is returned by an unreachable FakeCluster.
	ErrUnreachable = errors.New("dial tcp 127.0.0.1:9042: connect: connection refused")

	errSessionClosed = errors.New("session closed")

	createKeyspaceRe = regexp.MustCompile(`(?i)^CREATE KEYSPACE IF NOT EXISTS "?([A-Za-z0-9_]+)"? WITH replication = (\{.*\})$`)
	createUserRe     = regexp.MustCompile(`(?i)^CREATE USER IF NOT EXISTS '((?:[^']|'')*)' WITH PASSWORD '((?:[^']|'')*)' (SUPERUSER|NOSUPERUSER)$`)
)

// RequestError mimics the protocol errors returned by the gocql drivers.
type RequestError struct {
	ErrCode int
	Msg     string
}

func (e *RequestError) Code() int       { return e.ErrCode }
func (e *RequestError) Message() string { return e.Msg }
func (e *RequestError) Error() string   { return e.Msg }

// FakeUser is a role known to a FakeCluster.
type FakeUser struct {
	Password  string
	Superuser bool
}

// DialHook can replace the outcome of a single dial. Returning handled=false
// falls through to the cluster's normal behavior.
type DialHook func(ctx context.Context, n int, cfg cql.DialConfig) (session cql.Session, handled bool, err error)

// FakeCluster is an in-memory cluster implementing cql.Dialer.
//
// It tracks roles and keyspaces, rejects unknown credentials and missing
// keyspaces the way a PasswordAuthenticator cluster does, and applies the
// CREATE KEYSPACE and CREATE USER statements executed on its sessions. It
// counts dials and open handles so tests can check for leaks.
//
// Example:
//
//	cluster := testutil.NewFakeCluster()
//	manager, _ := cqlboot.NewManager(cluster, target)
//	require.NoError(t, manager.Connect(ctx))
//	require.True(t, cluster.HasKeyspace("chatapp"))
type FakeCluster struct {
	mu          sync.Mutex
	reachable   bool
	users       map[string]FakeUser
	keyspaces   map[string]string
	dials       []cql.DialConfig
	statements  []string
	open        int
	maxOpen     int
	stmtErrors  map[string]error
	dialHook    DialHook
	dialBlocker chan struct{}
}

var _ cql.Dialer = (*FakeCluster)(nil)

// NewFakeCluster creates a reachable cluster that only knows the default
// cassandra superuser and has no keyspaces.
func NewFakeCluster() *FakeCluster {
	return &FakeCluster{
		reachable:  true,
		users:      map[string]FakeUser{"cassandra": {Password: "cassandra", Superuser: true}},
		keyspaces:  make(map[string]string),
		stmtErrors: make(map[string]error),
	}
}

// SetReachable toggles whether dials reach the cluster.
func (c *FakeCluster) SetReachable(reachable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reachable = reachable
}

// AddUser registers a role.
func (c *FakeCluster) AddUser(name, password string, superuser bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.users[name] = FakeUser{Password: password, Superuser: superuser}
}

// RemoveUser drops a role, for example the default superuser on a hardened cluster.
func (c *FakeCluster) RemoveUser(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.users, name)
}

// AddKeyspace registers a keyspace.
func (c *FakeCluster) AddKeyspace(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.keyspaces[name] = "{'class': 'SimpleStrategy', 'replication_factor': 1}"
}

// FailStatements makes every statement starting with prefix fail with err.
func (c *FakeCluster) FailStatements(prefix string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stmtErrors[prefix] = err
}

// SetDialHook installs a hook consulted before every dial.
func (c *FakeCluster) SetDialHook(hook DialHook) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dialHook = hook
}

// BlockDials makes every dial wait until ReleaseDials is called or the dial
// context ends.
func (c *FakeCluster) BlockDials() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dialBlocker = make(chan struct{})
}

// ReleaseDials unblocks dials held by BlockDials.
func (c *FakeCluster) ReleaseDials() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dialBlocker != nil {
		close(c.dialBlocker)
		c.dialBlocker = nil
	}
}

// Dial implements cql.Dialer.
func (c *FakeCluster) Dial(ctx context.Context, cfg cql.DialConfig) (cql.Session, error) {
	c.mu.Lock()
	c.dials = append(c.dials, cfg)
	n := len(c.dials)
	hook := c.dialHook
	blocker := c.dialBlocker
	c.mu.Unlock()

	if blocker != nil {
		select {
		case <-blocker:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if hook != nil {
		if session, handled, err := hook(ctx, n, cfg); handled {
			return session, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.reachable {
		return nil, fmt.Errorf("gocql: unable to create session: unable to discover protocol version: %w", ErrUnreachable)
	}

	user, ok := c.users[cfg.Credentials.Username]
	if !ok || user.Password != cfg.Credentials.Password {
		return nil, &RequestError{
			ErrCode: CodeBadCredentials,
			Msg:     fmt.Sprintf("Provided username %s and/or password are incorrect", cfg.Credentials.Username),
		}
	}

	if cfg.Keyspace != "" {
		if _, ok := c.keyspaces[cfg.Keyspace]; !ok {
			return nil, &RequestError{
				ErrCode: CodeInvalid,
				Msg:     fmt.Sprintf("Keyspace '%s' does not exist", cfg.Keyspace),
			}
		}
	}

	return c.newSessionLocked(), nil
}

func (c *FakeCluster) newSessionLocked() *MockSession {
	session := NewMockSession(c.execute)
	session.OnClose = func() {
		c.mu.Lock()
		c.open--
		c.mu.Unlock()
	}

	c.open++
	if c.open > c.maxOpen {
		c.maxOpen = c.open
	}

	return session
}

func (c *FakeCluster) execute(_ context.Context, stmt string, _ []any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.statements = append(c.statements, stmt)

	for prefix, err := range c.stmtErrors {
		if strings.HasPrefix(stmt, prefix) {
			return err
		}
	}

	if m := createKeyspaceRe.FindStringSubmatch(stmt); m != nil {
		if _, ok := c.keyspaces[m[1]]; !ok {
			c.keyspaces[m[1]] = m[2]
		}

		return nil
	}

	if m := createUserRe.FindStringSubmatch(stmt); m != nil {
		name := strings.ReplaceAll(m[1], "''", "'")
		if _, ok := c.users[name]; !ok {
			c.users[name] = FakeUser{
				Password:  strings.ReplaceAll(m[2], "''", "'"),
				Superuser: strings.EqualFold(m[3], "SUPERUSER"),
			}
		}

		return nil
	}

	return nil
}

// Dials returns the number of dials made so far.
func (c *FakeCluster) Dials() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.dials)
}

// DialConfigs returns every dial configuration in order.
func (c *FakeCluster) DialConfigs() []cql.DialConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]cql.DialConfig(nil), c.dials...)
}

// Statements returns every statement executed on any session, in order.
func (c *FakeCluster) Statements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.statements...)
}

// OpenSessions returns the number of sessions not yet closed.
func (c *FakeCluster) OpenSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.open
}

// MaxOpenSessions returns the highest number of simultaneously open sessions.
func (c *FakeCluster) MaxOpenSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.maxOpen
}

// HasKeyspace reports whether the keyspace exists.
func (c *FakeCluster) HasKeyspace(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.keyspaces[name]

	return ok
}

// KeyspaceReplication returns the replication map the keyspace was created with.
func (c *FakeCluster) KeyspaceReplication(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.keyspaces[name]
}

// User returns a role.
func (c *FakeCluster) User(name string) (FakeUser, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users[name]

	return u, ok
}
