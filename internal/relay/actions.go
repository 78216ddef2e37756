package relay

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/daap14/imsweb/internal/audit"
	"github.com/daap14/imsweb/internal/backend"
	"github.com/daap14/imsweb/internal/session"
)

// Backend is the subset of the backend API client the relay forwards to.
type Backend interface {
	Login(ctx context.Context, creds backend.Credentials) (string, error)
	ListItems(ctx context.Context) ([]backend.Item, error)
	AddItem(ctx context.Context, token string, in backend.ItemInput) error
	UpdateItem(ctx context.Context, token string, id int64, in backend.ItemInput) error
	DeleteItem(ctx context.Context, token string, id int64) error
	ListUsers(ctx context.Context, token string) ([]backend.User, error)
	RegisterUser(ctx context.Context, token string, in backend.UserInput) error
	UpdateUser(ctx context.Context, token string, id int64, in backend.UserInput) error
	DeleteUser(ctx context.Context, token string, id int64) error
}

// Counter receives one call per finished action.
type Counter interface {
	RelayAction(action string, success bool)
}

type nopCounter struct{}

func (nopCounter) RelayAction(string, bool) {}

// Actions forwards UI operations to the backend and normalizes their outcome
// into a Result. Every action makes at most one backend call.
type Actions struct {
	api       Backend
	store     *session.Store
	recorder  audit.Recorder
	counter   Counter
	requestID func(context.Context) string
}

// Option configures optional Actions collaborators.
type Option func(*Actions)

// WithAuditRecorder records every action in rec.
func WithAuditRecorder(rec audit.Recorder) Option {
	return func(a *Actions) {
		a.recorder = rec
	}
}

// WithCounter reports every action to c.
func WithCounter(c Counter) Option {
	return func(a *Actions) {
		a.counter = c
	}
}

// WithRequestID sets how the request ID attached to audit events is read.
func WithRequestID(fn func(context.Context) string) Option {
	return func(a *Actions) {
		a.requestID = fn
	}
}

// New creates Actions relaying to api and writing session tokens to store.
func New(api Backend, store *session.Store, opts ...Option) *Actions {
	a := &Actions{
		api:       api,
		store:     store,
		recorder:  audit.Nop{},
		counter:   nopCounter{},
		requestID: func(context.Context) string { return "" },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login exchanges credentials for a token and stores it in the session cookie.
// On failure the cookie is left untouched.
func (a *Actions) Login(ctx context.Context, w http.ResponseWriter, creds backend.Credentials) Result[*session.Claims] {
	const action = "auth.login"

	token, err := a.api.Login(ctx, creds)
	if err != nil {
		return finish(ctx, a, creds.Username, action, "", fail[*session.Claims](a.reason(action, err, MsgLoginFailed, true)))
	}

	claims, err := session.Decode(token)
	if err != nil {
		slog.Warn("backend issued an undecodable session token", "error", err)
		return finish(ctx, a, creds.Username, action, "", fail[*session.Claims](MsgInvalidToken))
	}

	// A token without exp becomes a browser-session cookie.
	expiresAt, _ := claims.Expiry()
	a.store.Set(w, token, expiresAt)

	return finish(ctx, a, claims.Username, action, "", succeed(MsgLoginSucceeded, claims))
}

// Logout clears the session cookie. It succeeds with or without a session.
func (a *Actions) Logout(ctx context.Context, w http.ResponseWriter) Ack {
	a.store.Clear(w)
	return finish(ctx, a, actor(ctx), "auth.logout", "", succeed[any](MsgLoggedOut, nil))
}

// ListItems fetches all items. Without a session it returns no data.
func (a *Actions) ListItems(ctx context.Context) Result[[]backend.Item] {
	const action = "item.list"
	if !session.FromContext(ctx).Authenticated() {
		a.counter.RelayAction(action, false)
		return fail[[]backend.Item](MsgNotAuthenticated)
	}

	items, err := a.api.ListItems(ctx)
	if err != nil {
		a.counter.RelayAction(action, false)
		return fail[[]backend.Item](a.reason(action, err, MsgFetchItemsFailed, false))
	}
	a.counter.RelayAction(action, true)
	return succeed("", items)
}

// AddItem creates an item.
func (a *Actions) AddItem(ctx context.Context, in backend.ItemInput) Ack {
	const action = "item.add"
	return a.mutate(ctx, action, in.Name, func(token string) error {
		return a.api.AddItem(ctx, token, in)
	}, MsgItemAdded, MsgAddItemFailed, false)
}

// UpdateItem replaces item id.
func (a *Actions) UpdateItem(ctx context.Context, id int64, in backend.ItemInput) Ack {
	const action = "item.update"
	return a.mutate(ctx, action, strconv.FormatInt(id, 10), func(token string) error {
		return a.api.UpdateItem(ctx, token, id, in)
	}, MsgItemUpdated, MsgUpdateItemFailed, true)
}

// DeleteItem removes item id.
func (a *Actions) DeleteItem(ctx context.Context, id int64) Ack {
	const action = "item.delete"
	return a.mutate(ctx, action, strconv.FormatInt(id, 10), func(token string) error {
		return a.api.DeleteItem(ctx, token, id)
	}, MsgItemDeleted, MsgDeleteItemFailed, true)
}

// ListUsers fetches all user accounts. Without a session it returns no data.
func (a *Actions) ListUsers(ctx context.Context) Result[[]backend.User] {
	const action = "user.list"
	s := session.FromContext(ctx)
	if !s.Authenticated() {
		a.counter.RelayAction(action, false)
		return fail[[]backend.User](MsgNotAuthenticated)
	}

	users, err := a.api.ListUsers(ctx, s.Token)
	if err != nil {
		a.counter.RelayAction(action, false)
		return fail[[]backend.User](a.reason(action, err, MsgFetchUsersFailed, false))
	}
	a.counter.RelayAction(action, true)
	return succeed("", users)
}

// AddUser registers a user account.
func (a *Actions) AddUser(ctx context.Context, in backend.UserInput) Ack {
	const action = "user.add"
	return a.mutate(ctx, action, in.Username, func(token string) error {
		return a.api.RegisterUser(ctx, token, in)
	}, MsgUserAdded, MsgAddUserFailed, true)
}

// UpdateUser replaces user id. An empty password keeps the current one.
func (a *Actions) UpdateUser(ctx context.Context, id int64, in backend.UserInput) Ack {
	const action = "user.update"
	return a.mutate(ctx, action, strconv.FormatInt(id, 10), func(token string) error {
		return a.api.UpdateUser(ctx, token, id, in)
	}, MsgUserUpdated, MsgUpdateUserFailed, true)
}

// DeleteUser removes user id.
func (a *Actions) DeleteUser(ctx context.Context, id int64) Ack {
	const action = "user.delete"
	return a.mutate(ctx, action, strconv.FormatInt(id, 10), func(token string) error {
		return a.api.DeleteUser(ctx, token, id)
	}, MsgUserDeleted, MsgDeleteUserFailed, true)
}

// mutate runs call with the session token. Without a session no call is made.
func (a *Actions) mutate(ctx context.Context, action, target string, call func(token string) error, okMsg, failMsg string, useBackendMessage bool) Ack {
	s := session.FromContext(ctx)
	if !s.Authenticated() {
		return finish(ctx, a, "", action, target, fail[any](MsgNotAuthenticated))
	}

	if err := call(s.Token); err != nil {
		return finish(ctx, a, actor(ctx), action, target, fail[any](a.reason(action, err, failMsg, useBackendMessage)))
	}
	return finish(ctx, a, actor(ctx), action, target, succeed[any](okMsg, nil))
}

// reason maps a backend error to a displayable message. Rejections use the
// backend message when allowed; transport failures use a generic message.
func (a *Actions) reason(action string, err error, fallback string, useBackendMessage bool) string {
	if apiErr, ok := backend.AsAPIError(err); ok {
		slog.Info("backend rejected relay action", "action", action, "status", apiErr.Status, "message", apiErr.Message)
		if useBackendMessage && apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	slog.Error("relay action failed", "action", action, "error", err)
	return MsgUnknownError
}

// finish reports a mutating action to the counter and the audit trail.
func finish[T any](ctx context.Context, a *Actions, who, action, target string, res Result[T]) Result[T] {
	a.counter.RelayAction(action, res.Success)

	outcome := audit.OutcomeSuccess
	detail := ""
	if !res.Success {
		outcome = audit.OutcomeFailure
		detail = res.Message
	}
	err := a.recorder.Record(ctx, audit.Event{
		At:        time.Now().UTC(),
		RequestID: a.requestID(ctx),
		Actor:     who,
		Action:    action,
		Target:    target,
		Outcome:   outcome,
		Detail:    detail,
	})
	if err != nil {
		slog.Error("failed to record audit event", "action", action, "error", err)
	}
	return res
}

func actor(ctx context.Context) string {
	if c := session.FromContext(ctx).Claims; c != nil {
		return c.Username
	}
	return ""
}
