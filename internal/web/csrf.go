package web

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	csrfCookieName   = "_csrf"
	csrfFieldName    = "csrf_token"
	csrfTokenLength  = 32
	csrfCookieMaxAge = 12 * 3600
)

var (
	errNoCSRFCookie  = errors.New("no CSRF cookie")
	errInvalidCSRF   = errors.New("invalid CSRF token")
	errMissingCSRFIn = errors.New("missing CSRF form field")
)

// CSRF implements the double-submit pattern: a signed random token lives in
// a cookie and every form must echo it back.
type CSRF struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewCSRF creates a CSRF guard signing its cookie with authKey.
func NewCSRF(authKey []byte, secure bool) *CSRF {
	sc := securecookie.New(authKey, nil)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(csrfCookieMaxAge)
	return &CSRF{sc: sc, secure: secure}
}

func (c *CSRF) tokenFromCookie(r *http.Request) ([]byte, error) {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return nil, errNoCSRFCookie
	}

	var token []byte
	if err := c.sc.Decode(csrfCookieName, cookie.Value, &token); err != nil {
		return nil, err
	}
	if len(token) != csrfTokenLength {
		return nil, fmt.Errorf("unexpected length (want %d, got %d)", csrfTokenLength, len(token))
	}
	return token, nil
}

func (c *CSRF) setCookie(w http.ResponseWriter, token []byte) error {
	encoded, err := c.sc.Encode(csrfCookieName, token)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   csrfCookieMaxAge,
		Expires:  time.Now().Add(csrfCookieMaxAge * time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// Token returns the base64 token to embed in forms, issuing a new cookie when
// the request carries none or a malformed one.
func (c *CSRF) Token(w http.ResponseWriter, r *http.Request) string {
	token, err := c.tokenFromCookie(r)
	if err != nil {
		if !errors.Is(err, errNoCSRFCookie) {
			slog.Info("malformed CSRF cookie", "error", err)
		}
		token = make([]byte, csrfTokenLength)
		rand.Read(token)
		if err := c.setCookie(w, token); err != nil {
			slog.Error("couldn't set CSRF cookie", "error", err)
		}
	}
	return base64.StdEncoding.EncodeToString(token)
}

// Validate checks the submitted form token against the cookie.
func (c *CSRF) Validate(r *http.Request) error {
	submitted := r.PostFormValue(csrfFieldName)
	if submitted == "" {
		return errMissingCSRFIn
	}
	decoded, err := base64.StdEncoding.DecodeString(submitted)
	if err != nil {
		return err
	}
	token, err := c.tokenFromCookie(r)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(token, decoded) != 1 {
		return errInvalidCSRF
	}
	return nil
}

// Protect rejects unsafe requests whose form does not carry a valid token.
func (c *CSRF) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if err := c.Validate(r); err != nil {
			slog.Warn("rejected request without valid CSRF token", "path", r.URL.Path, "error", err)
			http.Error(w, "Forbidden - invalid CSRF token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
