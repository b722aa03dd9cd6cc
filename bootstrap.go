package cqlboot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/cqlboot/adapter/cql"
	"github.com/arloliu/cqlboot/types"
)

// CreateKeyspaceStatement renders the idempotent keyspace creation statement.
//
// Example:
//
//	CreateKeyspaceStatement(types.NewKeyspace("chatapp"))
//	// CREATE KEYSPACE IF NOT EXISTS chatapp WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}
func CreateKeyspaceStatement(ks types.Keyspace) string {
	return fmt.Sprintf("CREATE KEYSPACE IF NOT EXISTS %s WITH replication = %s",
		quoteIdentifier(ks.Name), ks.Replication.CQL())
}

// CreateUserStatement renders the idempotent superuser creation statement.
// Single quotes in the username or password are doubled.
func CreateUserStatement(creds types.Credentials) string {
	return fmt.Sprintf("CREATE USER IF NOT EXISTS %s WITH PASSWORD %s SUPERUSER",
		quoteLiteral(creds.Username), quoteLiteral(creds.Password))
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteIdentifier leaves lowercase identifiers bare and double-quotes the
// rest. The drivers bind keyspaces case-sensitively, so a mixed-case name has
// to be created case-sensitively too.
func quoteIdentifier(name string) string {
	if name == strings.ToLower(name) {
		return name
	}

	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// bootstrap provisions the configured keyspace and user with the default
// credentials. The bootstrap handle is always closed before it returns.
//
// A rejected default login or a failed statement is fatal and comes back as
// a *types.ConnectionError. A connectivity failure while dialing comes back
// as a *types.StageError so the outer loop retries from scratch.
func (m *Manager) bootstrap(ctx context.Context, log *connectLogger, attempt int) error {
	m.transition(ctx, types.Bootstrapping)
	m.cfg.Metrics.IncBootstrapTotal()

	ks := m.target.Keyspace
	defaults := m.cfg.DefaultCredentials

	log.Info("falling back to default credentials",
		"stage", types.StageDefaultCredentials, "outcome", "attempting", "user", defaults.String())

	session, class, err := m.dial(ctx, defaults, "")
	if err != nil {
		return m.bootstrapDialError(ctx, log, types.StageDefaultCredentials, attempt, class, err)
	}

	log.Info("creating keyspace",
		"stage", types.StageCreateKeyspace, "outcome", "attempting",
		"keyspace", ks.Name, "replication", ks.Replication.CQL())

	if err := m.exec(ctx, session, CreateKeyspaceStatement(ks)); err != nil {
		session.Close()
		return m.provisioningFailed(ctx, log, types.StageCreateKeyspace, attempt, err)
	}
	session.Close()

	log.Info("binding keyspace", "stage", types.StageBindKeyspace, "outcome", "attempting", "keyspace", ks.Name)

	session, class, err = m.dial(ctx, defaults, ks.Name)
	if err != nil {
		return m.bootstrapDialError(ctx, log, types.StageBindKeyspace, attempt, class, err)
	}
	defer session.Close()

	log.Info("creating user",
		"stage", types.StageCreateUser, "outcome", "attempting", "user", m.target.Credentials.String())

	if err := m.exec(ctx, session, CreateUserStatement(m.target.Credentials)); err != nil {
		return m.provisioningFailed(ctx, log, types.StageCreateUser, attempt, err)
	}

	log.Info("bootstrap completed", "stage", types.StageCreateUser, "outcome", "succeeded")

	return nil
}

func (m *Manager) bootstrapDialError(ctx context.Context, log *connectLogger, stage types.Stage, attempt int,
	class types.FailureClass, err error,
) error {
	if class == types.ClassConnectivity {
		log.Warn("bootstrap dial failed", "stage", stage, "outcome", "failed", "attempt", attempt, "error", err)

		return &types.StageError{Stage: stage, Class: types.ClassConnectivity, Cause: err}
	}

	return m.provisioningFailed(ctx, log, stage, attempt,
		&types.StageError{Stage: stage, Class: types.ClassAuthOrKeyspace, Cause: err})
}

// provisioningFailed builds the fatal error for a failed bootstrap step.
// Cancellation is left to the caller, which checks the context first.
func (m *Manager) provisioningFailed(ctx context.Context, log *connectLogger, stage types.Stage, attempt int, err error) error {
	if ctx.Err() == nil {
		m.cfg.Metrics.IncBootstrapError()
		log.Error("provisioning failed", "stage", stage, "outcome", "fatal", "error", err)
	}

	return &types.ConnectionError{
		Kind:    types.ErrProvisioningFailed,
		Stage:   stage,
		Attempt: attempt,
		Cause:   err,
	}
}

// exec runs a single provisioning statement under the statement timeout.
func (m *Manager) exec(ctx context.Context, session cql.Session, stmt string) error {
	if m.cfg.StatementTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.StatementTimeout)
		defer cancel()
	}

	if err := session.Query(stmt).ExecContext(ctx); err != nil {
		return fmt.Errorf("executing %q: %w", redact(stmt), err)
	}

	return nil
}

// redact hides the password of a CREATE USER statement.
func redact(stmt string) string {
	idx := strings.Index(stmt, " WITH PASSWORD ")
	if idx < 0 || !strings.HasPrefix(stmt, "CREATE USER") {
		return stmt
	}

	return stmt[:idx] + " WITH PASSWORD '***' SUPERUSER"
}

var errNilSession = errors.New("dialer returned a nil session")
