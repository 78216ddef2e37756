package session

import (
	"net/http"
	"time"
)

// timeNow is time.Now but pulled out as a variable for tests.
var timeNow = time.Now

// Store keeps the session token in a single HTTP-only cookie.
type Store struct {
	name   string
	secure bool
}

// NewStore creates a Store for the named cookie. secure restricts the cookie
// to HTTPS and should be set in production.
func NewStore(name string, secure bool) *Store {
	return &Store{name: name, secure: secure}
}

// Name returns the cookie name.
func (s *Store) Name() string {
	return s.name
}

func (s *Store) makeCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Set stores token in the cookie until expiresAt, replacing any previous value.
func (s *Store) Set(w http.ResponseWriter, token string, expiresAt time.Time) {
	c := s.makeCookie(token)
	c.Expires = expiresAt
	http.SetCookie(w, c)
}

// Clear overwrites the cookie with an empty, already expired value.
func (s *Store) Clear(w http.ResponseWriter) {
	c := s.makeCookie("")
	c.MaxAge = -1
	c.Expires = timeNow().Add(-time.Hour)
	http.SetCookie(w, c)
}

// Get returns the token carried by the request. An empty cookie counts as absent.
func (s *Store) Get(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
