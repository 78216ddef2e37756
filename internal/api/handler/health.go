package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/daap14/imsweb/internal/api/middleware"
	"github.com/daap14/imsweb/internal/api/response"
	"github.com/daap14/imsweb/internal/audit"
	"github.com/daap14/imsweb/internal/backend"
)

// BackendChecker reports whether the backend REST API answers.
type BackendChecker interface {
	CheckConnectivity(ctx context.Context) backend.Connectivity
}

// AuditSink is a queryable audit store, such as the Postgres recorder.
type AuditSink interface {
	Ping(ctx context.Context) error
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	backend BackendChecker
	audit   AuditSink
	version string
}

// NewHealthHandler creates a new HealthHandler. audit may be nil when no
// database audit sink is configured.
func NewHealthHandler(checker BackendChecker, sink AuditSink, version string) *HealthHandler {
	return &HealthHandler{
		backend: checker,
		audit:   sink,
		version: version,
	}
}

type backendStatus struct {
	Reachable bool `json:"reachable"`
	Status    *int `json:"status"`
}

type auditStatus struct {
	Configured  bool       `json:"configured"`
	Connected   bool       `json:"connected"`
	LastEventAt *time.Time `json:"lastEventAt"`
}

type healthData struct {
	Status  string        `json:"status"`
	Version string        `json:"version"`
	Backend backendStatus `json:"backend"`
	Audit   auditStatus   `json:"audit"`
}

// ServeHTTP handles the health check request. It always answers 200; a
// degraded dependency is reported in the body.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	status := "healthy"

	conn := h.backend.CheckConnectivity(r.Context())
	var code *int
	if conn.Status != 0 {
		code = &conn.Status
	}
	if !conn.Reachable {
		status = "degraded"
	}

	sink := auditStatus{}
	if h.audit != nil {
		sink.Configured = true
		sink.Connected = h.audit.Ping(r.Context()) == nil
		if !sink.Connected {
			status = "degraded"
		} else {
			sink.LastEventAt = h.lastEventAt(r.Context())
		}
	}

	response.Success(w, http.StatusOK, healthData{
		Status:  status,
		Version: h.version,
		Backend: backendStatus{Reachable: conn.Reachable, Status: code},
		Audit:   sink,
	}, requestID)
}

// lastEventAt returns the time of the newest audit event, or nil when the
// trail is empty or cannot be read.
func (h *HealthHandler) lastEventAt(ctx context.Context) *time.Time {
	events, err := h.audit.Recent(ctx, 1)
	if err != nil {
		slog.Warn("failed to read audit trail", "error", err)
		return nil
	}
	if len(events) == 0 {
		return nil
	}
	at := events[0].At
	return &at
}
