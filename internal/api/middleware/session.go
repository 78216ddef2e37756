package middleware

import (
	"net/http"

	"github.com/daap14/imsweb/internal/api/response"
	"github.com/daap14/imsweb/internal/session"
)

// Session loads the caller's session from the token cookie into the request
// context. It never rejects a request.
func Session(reader *session.Reader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := reader.Load(r)
			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
		})
	}
}

// RequireSession rejects requests without a session token with 401.
// The token is not verified; the backend decides whether it is valid.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).Authenticated() {
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
