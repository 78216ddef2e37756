package session

import (
	"context"
	"log/slog"
	"net/http"
)

// Session is the request-scoped view of the caller's credential.
type Session struct {
	Token  string
	Claims *Claims
}

// Authenticated reports whether a token is present. It says nothing about
// whether the backend will accept it.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Reader answers session queries from the Token Store without contacting the backend.
type Reader struct {
	store *Store
}

// NewReader creates a Reader on top of store.
func NewReader(store *Store) *Reader {
	return &Reader{store: store}
}

// IsAuthenticated returns true iff a non-empty token cookie is present.
func (rd *Reader) IsAuthenticated(r *http.Request) bool {
	_, ok := rd.store.Get(r)
	return ok
}

// UserInfo decodes the claims of the current token. A missing or malformed
// token yields false.
func (rd *Reader) UserInfo(r *http.Request) (*Claims, bool) {
	token, ok := rd.store.Get(r)
	if !ok {
		return nil, false
	}
	claims, err := Decode(token)
	if err != nil {
		slog.Debug("failed to decode session token", "error", err)
		return nil, false
	}
	return claims, true
}

// Load builds the Session for r. Claims is nil when the token does not decode.
func (rd *Reader) Load(r *http.Request) Session {
	token, ok := rd.store.Get(r)
	if !ok {
		return Session{}
	}
	s := Session{Token: token}
	if claims, err := Decode(token); err == nil {
		s.Claims = claims
	} else {
		slog.Debug("failed to decode session token", "error", err)
	}
	return s
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the Session stored in ctx, or the zero Session.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(contextKey{}).(Session)
	return s
}
