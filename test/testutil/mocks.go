package testutil

import (
	"context"
	"sync"

	"github.com/arloliu/cqlboot/adapter/cql"
)

// ExecFunc handles a statement executed through a MockSession.
type ExecFunc func(ctx context.Context, stmt string, values []any) error

// MockSession is a mock implementation of cql.Session for testing.
type MockSession struct {
	mu         sync.Mutex
	closed     bool
	statements []string

	exec ExecFunc

	// OnClose runs once when the session is closed.
	OnClose func()
}

var _ cql.Session = (*MockSession)(nil)

// NewMockSession creates a mock session. A nil exec accepts every statement.
func NewMockSession(exec ExecFunc) *MockSession {
	return &MockSession{exec: exec}
}

// Query returns a mock query for the given statement.
func (s *MockSession) Query(stmt string, values ...any) cql.Query {
	return &MockQuery{session: s, statement: stmt, values: values}
}

// Batch returns a mock batch.
func (s *MockSession) Batch(kind cql.BatchType) cql.Batch {
	return &MockBatch{session: s, kind: kind}
}

// Closed reports whether Close has been called.
func (s *MockSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Close marks the session closed. Repeated calls are ignored.
func (s *MockSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	onClose := s.OnClose
	s.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}

// Statements returns the statements executed on this session, in order.
func (s *MockSession) Statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.statements...)
}

func (s *MockSession) run(ctx context.Context, stmt string, values []any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errSessionClosed
	}
	s.statements = append(s.statements, stmt)
	exec := s.exec
	s.mu.Unlock()

	if exec == nil {
		return nil
	}

	return exec(ctx, stmt, values)
}

// MockQuery is a mock implementation of cql.Query.
type MockQuery struct {
	session   *MockSession
	statement string
	values    []any
}

var _ cql.Query = (*MockQuery)(nil)

func (q *MockQuery) Consistency(cql.Consistency) cql.Query { return q }
func (q *MockQuery) PageSize(int) cql.Query                { return q }
func (q *MockQuery) PageState([]byte) cql.Query            { return q }
func (q *MockQuery) WithTimestamp(int64) cql.Query         { return q }

// Exec executes the query with a background context.
func (q *MockQuery) Exec() error {
	return q.ExecContext(context.Background())
}

// ExecContext executes the query.
func (q *MockQuery) ExecContext(ctx context.Context) error {
	return q.session.run(ctx, q.statement, q.values)
}

// ScanContext executes the query; no columns are scanned.
func (q *MockQuery) ScanContext(ctx context.Context, _ ...any) error {
	return q.session.run(ctx, q.statement, q.values)
}

// IterContext executes the query and returns an empty iterator carrying
// the execution error.
func (q *MockQuery) IterContext(ctx context.Context) cql.Iter {
	return &MockIter{err: q.session.run(ctx, q.statement, q.values)}
}

// MapScanContext executes the query; the map is left untouched.
func (q *MockQuery) MapScanContext(ctx context.Context, _ map[string]any) error {
	return q.session.run(ctx, q.statement, q.values)
}

func (q *MockQuery) Statement() string { return q.statement }
func (q *MockQuery) Values() []any     { return q.values }

// MockBatch is a mock implementation of cql.Batch.
type MockBatch struct {
	session *MockSession
	kind    cql.BatchType
	entries []string
}

var _ cql.Batch = (*MockBatch)(nil)

// Query adds a statement to the batch.
func (b *MockBatch) Query(stmt string, _ ...any) cql.Batch {
	b.entries = append(b.entries, stmt)
	return b
}

func (b *MockBatch) Consistency(cql.Consistency) cql.Batch { return b }

// ExecContext executes every statement in order and stops at the first error.
func (b *MockBatch) ExecContext(ctx context.Context) error {
	for _, stmt := range b.entries {
		if err := b.session.run(ctx, stmt, nil); err != nil {
			return err
		}
	}

	return nil
}

func (b *MockBatch) Size() int { return len(b.entries) }

// MockIter is an empty cql.Iter.
type MockIter struct {
	err error
}

var _ cql.Iter = (*MockIter)(nil)

func (i *MockIter) Scan(...any) bool           { return false }
func (i *MockIter) MapScan(map[string]any) bool { return false }
func (i *MockIter) PageState() []byte          { return nil }
func (i *MockIter) Close() error               { return i.err }
