package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dyluth/loratx/internal/bridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

type fakeReporter struct {
	snap bridge.Snapshot
	err  error
}

func (r fakeReporter) Snapshot(ctx context.Context) (bridge.Snapshot, error) { return r.snap, r.err }

func serve(t *testing.T, s *Server, method string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, "/healthz", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var resp Response
	if w.Code != http.StatusMethodNotAllowed {
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	}
	return w, resp
}

func TestHealthCheck_Healthy(t *testing.T) {
	s := NewServer(fakePinger{}, fakeReporter{snap: bridge.Snapshot{
		Health:     bridge.Alive,
		GateBusy:   true,
		Sent:       4,
		Heartbeats: 1,
	}}, ":0")

	w, resp := serve(t, s, http.MethodGet)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "connected", resp.Redis)
	assert.Equal(t, "alive", resp.Link)
	assert.True(t, resp.GateBusy)
	assert.Equal(t, uint64(4), resp.Sent)
	assert.Equal(t, uint64(1), resp.Heartbeats)
}

func TestHealthCheck_RedisDown(t *testing.T) {
	s := NewServer(fakePinger{err: errors.New("connection refused")}, fakeReporter{snap: bridge.Snapshot{Health: bridge.Dead}}, ":0")

	w, resp := serve(t, s, http.MethodGet)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "disconnected", resp.Redis)
	assert.Equal(t, "connection refused", resp.Error)
	assert.Equal(t, "dead", resp.Link)
}

func TestHealthCheck_EngineNotRunning(t *testing.T) {
	s := NewServer(fakePinger{}, fakeReporter{err: context.DeadlineExceeded}, ":0")

	w, resp := serve(t, s, http.MethodGet)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp.Link)
}

func TestHealthCheck_MethodNotAllowed(t *testing.T) {
	s := NewServer(fakePinger{}, fakeReporter{}, ":0")

	w, _ := serve(t, s, http.MethodPost)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestShutdownWithoutStart(t *testing.T) {
	s := NewServer(fakePinger{}, fakeReporter{}, ":0")
	assert.NoError(t, s.Shutdown(context.Background()))
}
