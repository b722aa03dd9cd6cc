package cqlboot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/cqlboot/adapter/cql"
)

// countingSession is a minimal cql.Session for internal tests.
type countingSession struct {
	closes int
}

func (s *countingSession) Query(string, ...any) cql.Query { return nil }
func (s *countingSession) Batch(cql.BatchType) cql.Batch  { return nil }
func (s *countingSession) Closed() bool                   { return s.closes > 0 }
func (s *countingSession) Close()                         { s.closes++ }

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.False(t, sleep(ctx, time.Hour))
	require.False(t, sleep(ctx, 0))
	require.True(t, sleep(context.Background(), 0))
	require.True(t, sleep(context.Background(), time.Millisecond))
}
