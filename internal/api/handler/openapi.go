package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/daap14/imsweb/internal/api/middleware"
	"github.com/daap14/imsweb/internal/api/response"
)

// OpenAPIHandler serves the OpenAPI document as JSON.
type OpenAPIHandler struct {
	rawYAML  []byte
	jsonOnce sync.Once
	jsonSpec []byte
	etag     string
	jsonErr  error
}

// NewOpenAPIHandler creates a handler that converts the YAML document to JSON
// on first request.
func NewOpenAPIHandler(yamlSpec []byte) *OpenAPIHandler {
	return &OpenAPIHandler{rawYAML: yamlSpec}
}

func (h *OpenAPIHandler) convert() {
	h.jsonSpec, h.jsonErr = yaml.YAMLToJSON(h.rawYAML)
	if h.jsonErr == nil {
		sum := sha256.Sum256(h.jsonSpec)
		h.etag = `"` + hex.EncodeToString(sum[:8]) + `"`
	}
}

// ServeHTTP writes the cached JSON document. Conditional requests carrying
// the current ETag get 304.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.jsonOnce.Do(h.convert)

	if h.jsonErr != nil {
		slog.Error("failed to convert OpenAPI spec to JSON", "error", h.jsonErr)
		requestID := middleware.GetRequestID(r.Context())
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to convert OpenAPI spec", requestID)
		return
	}

	w.Header().Set("ETag", h.etag)
	if r.Header.Get("If-None-Match") == h.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.jsonSpec); err != nil {
		slog.Error("failed to write OpenAPI spec response", "error", err)
	}
}
