package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/imsweb/internal/api/middleware"
	"github.com/daap14/imsweb/internal/api/response"
	"github.com/daap14/imsweb/internal/api/validation"
	"github.com/daap14/imsweb/internal/backend"
	"github.com/daap14/imsweb/internal/relay"
	"github.com/daap14/imsweb/internal/session"
)

// Relay is the set of relay actions exposed as JSON.
type Relay interface {
	ListItems(ctx context.Context) relay.Result[[]backend.Item]
	AddItem(ctx context.Context, in backend.ItemInput) relay.Ack
	UpdateItem(ctx context.Context, id int64, in backend.ItemInput) relay.Ack
	DeleteItem(ctx context.Context, id int64) relay.Ack
	ListUsers(ctx context.Context) relay.Result[[]backend.User]
	AddUser(ctx context.Context, in backend.UserInput) relay.Ack
	UpdateUser(ctx context.Context, id int64, in backend.UserInput) relay.Ack
	DeleteUser(ctx context.Context, id int64) relay.Ack
}

type itemRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Quantity    json.Number `json:"quantity"`
	Price       json.Number `json:"price"`
}

type userRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	ID        int64        `json:"id"`
	Username  string       `json:"username"`
	Role      session.Role `json:"role"`
	ExpiresAt *string      `json:"expiresAt"`
}

// RelayHandler exposes relay actions for client-side refreshes.
type RelayHandler struct {
	actions Relay
}

// NewRelayHandler creates a new RelayHandler.
func NewRelayHandler(actions Relay) *RelayHandler {
	return &RelayHandler{actions: actions}
}

// Session handles GET /relay/session.
func (h *RelayHandler) Session(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	claims := session.FromContext(r.Context()).Claims
	if claims == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", relay.MsgNotAuthenticated, requestID)
		return
	}

	resp := sessionResponse{ID: claims.ID, Username: claims.Username, Role: claims.Role}
	if exp, ok := claims.Expiry(); ok {
		s := exp.UTC().Format("2006-01-02T15:04:05Z")
		resp.ExpiresAt = &s
	}
	response.Success(w, http.StatusOK, resp, requestID)
}

// ListItems handles GET /relay/items.
func (h *RelayHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	res := h.actions.ListItems(r.Context())
	writeResult(w, r, res.Success, res.Message, res)
}

// AddItem handles POST /relay/items.
func (h *RelayHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeItem(w, r)
	if !ok {
		return
	}
	res := h.actions.AddItem(r.Context(), in)
	writeResult(w, r, res.Success, res.Message, res)
}

// UpdateItem handles PUT /relay/items/{id}.
func (h *RelayHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeItem(w, r)
	if !ok {
		return
	}
	res := h.actions.UpdateItem(r.Context(), id, in)
	writeResult(w, r, res.Success, res.Message, res)
}

// DeleteItem handles DELETE /relay/items/{id}.
func (h *RelayHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res := h.actions.DeleteItem(r.Context(), id)
	writeResult(w, r, res.Success, res.Message, res)
}

// ListUsers handles GET /relay/users.
func (h *RelayHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	res := h.actions.ListUsers(r.Context())
	writeResult(w, r, res.Success, res.Message, res)
}

// AddUser handles POST /relay/users.
func (h *RelayHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeUser(w, r, false)
	if !ok {
		return
	}
	res := h.actions.AddUser(r.Context(), in)
	writeResult(w, r, res.Success, res.Message, res)
}

// UpdateUser handles PUT /relay/users/{id}.
func (h *RelayHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeUser(w, r, true)
	if !ok {
		return
	}
	res := h.actions.UpdateUser(r.Context(), id, in)
	writeResult(w, r, res.Success, res.Message, res)
}

// DeleteUser handles DELETE /relay/users/{id}.
func (h *RelayHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res := h.actions.DeleteUser(r.Context(), id)
	writeResult(w, r, res.Success, res.Message, res)
}

// writeResult maps a relay result onto the envelope: success is 200 with the
// result as data, a missing session is 401, anything else 502.
func writeResult(w http.ResponseWriter, r *http.Request, success bool, message string, res any) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case success:
		response.Success(w, http.StatusOK, res, requestID)
	case message == relay.MsgNotAuthenticated:
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", message, requestID)
	default:
		response.Err(w, http.StatusBadGateway, "RELAY_FAILED", message, requestID)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := validation.ParseID(chi.URLParam(r, "id"))
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a positive integer", middleware.GetRequestID(r.Context()))
	}
	return id, ok
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func decodeItem(w http.ResponseWriter, r *http.Request) (backend.ItemInput, bool) {
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return backend.ItemInput{}, false
	}
	in, errs := validation.ParseItem(validation.ItemForm{
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity.String(),
		Price:       req.Price.String(),
	})
	if len(errs) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", errs, middleware.GetRequestID(r.Context()))
		return backend.ItemInput{}, false
	}
	return in, true
}

func decodeUser(w http.ResponseWriter, r *http.Request, existing bool) (backend.UserInput, bool) {
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return backend.UserInput{}, false
	}
	in, errs := validation.ParseUser(validation.UserForm{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		Existing: existing,
	})
	if len(errs) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", errs, middleware.GetRequestID(r.Context()))
		return backend.UserInput{}, false
	}
	return in, true
}
