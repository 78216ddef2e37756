package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const flashCookieName = "_flash"

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Success bool   `json:"s"`
	Message string `json:"m"`
}

type flashes struct {
	sc     *securecookie.SecureCookie
	secure bool
}

func newFlashes(authKey []byte, secure bool) *flashes {
	sc := securecookie.New(authKey, nil)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(60)
	return &flashes{sc: sc, secure: secure}
}

func (f *flashes) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Set stores fl for the next request.
func (f *flashes) Set(w http.ResponseWriter, fl Flash) {
	encoded, err := f.sc.Encode(flashCookieName, fl)
	if err != nil {
		slog.Error("failed to encode flash", "error", err)
		return
	}
	http.SetCookie(w, f.cookie(encoded, 60))
}

// Pop returns the pending flash, if any, and clears it.
func (f *flashes) Pop(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	expired := f.cookie("", -1)
	expired.Expires = time.Unix(0, 0)
	http.SetCookie(w, expired)

	var fl Flash
	if err := f.sc.Decode(flashCookieName, c.Value, &fl); err != nil {
		slog.Debug("discarding undecodable flash", "error", err)
		return nil
	}
	return &fl
}
