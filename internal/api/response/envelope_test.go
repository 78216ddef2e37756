package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/imsweb/internal/api/response"
)

func TestNewMeta_GeneratesUUID(t *testing.T) {
	meta := response.NewMeta("")

	_, err := uuid.Parse(meta.RequestID)
	assert.NoError(t, err, "requestId should be a valid UUID")
}

func TestNewMeta_UsesProvidedRequestID(t *testing.T) {
	meta := response.NewMeta("req-42")

	assert.Equal(t, "req-42", meta.RequestID)
}

func TestNewMeta_TimestampIsRFC3339(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)

	meta := response.NewMeta("")

	parsed, err := time.Parse(time.RFC3339, meta.Timestamp)
	require.NoError(t, err)
	assert.False(t, parsed.Before(before))
	assert.True(t, parsed.Before(time.Now().UTC().Add(time.Second)))
}

func TestSuccess_WritesEnvelope(t *testing.T) {
	w := httptest.NewRecorder()

	response.Success(w, http.StatusOK, map[string]any{"success": true, "message": "ok"}, "req-1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Nil(t, env["error"])
	data := env["data"].(map[string]any)
	assert.Equal(t, true, data["success"])
	meta := env["meta"].(map[string]any)
	assert.Equal(t, "req-1", meta["requestId"])
	assert.NotEmpty(t, meta["timestamp"])
}

func TestErr_WritesErrorEnvelope(t *testing.T) {
	w := httptest.NewRecorder()

	response.Err(w, http.StatusBadGateway, "RELAY_FAILED", "Failed to delete item", "req-2")

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Nil(t, env["data"])
	errObj := env["error"].(map[string]any)
	assert.Equal(t, "RELAY_FAILED", errObj["code"])
	assert.Equal(t, "Failed to delete item", errObj["message"])
	assert.NotContains(t, errObj, "details")
}

func TestErrWithDetails_IncludesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	details := []map[string]string{{"field": "quantity", "message": "quantity must be a whole number"}}

	response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", details, "req-3")

	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	errObj := env["error"].(map[string]any)
	require.Contains(t, errObj, "details")
	assert.Len(t, errObj["details"], 1)
}
