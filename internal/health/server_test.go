package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/cqlboot/internal/logging"
	"github.com/arloliu/cqlboot/types"
)

type fakeSource struct {
	state types.ConnectionState
}

func (f *fakeSource) State() types.ConnectionState { return f.state }
func (f *fakeSource) Ready() bool                  { return f.state == types.Connected }

func (f *fakeSource) SessionID() string {
	if f.state == types.Connected {
		return "3f1c2a9e"
	}

	return ""
}

func (f *fakeSource) Target() types.Target {
	return types.Target{
		Endpoint: types.Endpoint{Host: "localhost", Port: 9042},
		Keyspace: types.NewKeyspace("chatapp"),
	}
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

func TestHealthz(t *testing.T) {
	s := New(":0", &fakeSource{state: types.Failed}, nil, logging.NewNopLogger())

	rec := serve(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	source := &fakeSource{state: types.Bootstrapping}
	s := New(":0", source, nil, logging.NewNopLogger())

	rec := serve(t, s, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "bootstrapping", status.State)
	assert.False(t, status.Ready)
	assert.Empty(t, status.SessionID)

	source.state = types.Connected
	rec = serve(t, s, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Ready)
	assert.Equal(t, "localhost:9042", status.Endpoint)
	assert.Equal(t, "chatapp", status.Keyspace)
	assert.Equal(t, "3f1c2a9e", status.SessionID)
}

func TestMetricsRoute(t *testing.T) {
	withoutMetrics := New(":0", &fakeSource{}, nil, logging.NewNopLogger())
	assert.Equal(t, http.StatusNotFound, serve(t, withoutMetrics, "/metrics").Code)

	handler := func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("cqlboot_connection_state 2\n"))
	}
	withMetrics := New(":0", &fakeSource{}, handler, logging.NewNopLogger())

	rec := serve(t, withMetrics, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cqlboot_connection_state 2")
}

func TestRunStopsWithContext(t *testing.T) {
	s := New("127.0.0.1:0", &fakeSource{}, nil, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}
