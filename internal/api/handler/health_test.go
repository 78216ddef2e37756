package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/daap14/imsweb/internal/api/handler"
	"github.com/daap14/imsweb/internal/audit"
	"github.com/daap14/imsweb/internal/backend"
)

type mockBackendChecker struct {
	conn backend.Connectivity
}

func (m *mockBackendChecker) CheckConnectivity(_ context.Context) backend.Connectivity {
	return m.conn
}

type mockAuditSink struct {
	pingErr   error
	events    []audit.Event
	recentErr error
	limit     int
}

func (m *mockAuditSink) Ping(_ context.Context) error {
	return m.pingErr
}

func (m *mockAuditSink) Recent(_ context.Context, limit int) ([]audit.Event, error) {
	m.limit = limit
	return m.events, m.recentErr
}

var _ handler.AuditSink = (*audit.PostgresRecorder)(nil)

func serveHealth(t *testing.T, h *handler.HealthHandler) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	env := parseEnvelope(t, w)
	assert.Nil(t, env["error"])
	assert.NotNil(t, env["meta"])
	return env["data"].(map[string]any)
}

func TestHealthHandler_Healthy(t *testing.T) {
	checker := &mockBackendChecker{conn: backend.Connectivity{Reachable: true, Status: http.StatusOK}}
	h := handler.NewHealthHandler(checker, nil, "0.1.0")

	data := serveHealth(t, h)

	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "0.1.0", data["version"])
	be := data["backend"].(map[string]any)
	assert.Equal(t, true, be["reachable"])
	assert.Equal(t, float64(200), be["status"])
	sink := data["audit"].(map[string]any)
	assert.Equal(t, false, sink["configured"])
}

func TestHealthHandler_BackendDown(t *testing.T) {
	h := handler.NewHealthHandler(&mockBackendChecker{}, nil, "dev")

	data := serveHealth(t, h)

	assert.Equal(t, "degraded", data["status"])
	be := data["backend"].(map[string]any)
	assert.Equal(t, false, be["reachable"])
	assert.Nil(t, be["status"])
}

func TestHealthHandler_AuditDown(t *testing.T) {
	checker := &mockBackendChecker{conn: backend.Connectivity{Reachable: true, Status: http.StatusOK}}
	h := handler.NewHealthHandler(checker, &mockAuditSink{pingErr: errors.New("connection refused")}, "dev")

	data := serveHealth(t, h)

	assert.Equal(t, "degraded", data["status"])
	sink := data["audit"].(map[string]any)
	assert.Equal(t, true, sink["configured"])
	assert.Equal(t, false, sink["connected"])
}

func TestHealthHandler_AuditUp(t *testing.T) {
	checker := &mockBackendChecker{conn: backend.Connectivity{Reachable: true, Status: http.StatusUnauthorized}}
	h := handler.NewHealthHandler(checker, &mockAuditSink{}, "2.5.0-beta")

	data := serveHealth(t, h)

	assert.Equal(t, "healthy", data["status"], "any HTTP answer counts as reachable")
	assert.Equal(t, "2.5.0-beta", data["version"])
	sink := data["audit"].(map[string]any)
	assert.Equal(t, true, sink["connected"])
	assert.Nil(t, sink["lastEventAt"], "empty trail has no last event")
}

func TestHealthHandler_AuditLastEvent(t *testing.T) {
	checker := &mockBackendChecker{conn: backend.Connectivity{Reachable: true, Status: http.StatusOK}}
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	sink := &mockAuditSink{events: []audit.Event{{At: at, Actor: "alice", Action: "items.add"}}}
	h := handler.NewHealthHandler(checker, sink, "dev")

	data := serveHealth(t, h)

	assert.Equal(t, 1, sink.limit)
	assert.Equal(t, "2026-03-14T09:26:53Z", data["audit"].(map[string]any)["lastEventAt"])
}

func TestHealthHandler_AuditUnreadable(t *testing.T) {
	checker := &mockBackendChecker{conn: backend.Connectivity{Reachable: true, Status: http.StatusOK}}
	h := handler.NewHealthHandler(checker, &mockAuditSink{recentErr: errors.New("relation does not exist")}, "dev")

	data := serveHealth(t, h)

	assert.Equal(t, "healthy", data["status"])
	sink := data["audit"].(map[string]any)
	assert.Equal(t, true, sink["connected"])
	assert.Nil(t, sink["lastEventAt"])
}
