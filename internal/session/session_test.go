package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/imsweb/internal/session"
)

func signToken(t *testing.T, role session.Role, id int64, username string, exp time.Time) string {
	t.Helper()
	claims := session.Claims{
		Role:     role,
		ID:       id,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-only-secret"))
	require.NoError(t, err)
	return token
}

func requestWithCookies(cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// --- Decode ---

func TestDecode_ValidToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, session.RoleAdmin, 7, "alice", exp)

	claims, err := session.Decode(token)

	require.NoError(t, err)
	assert.Equal(t, session.RoleAdmin, claims.Role)
	assert.Equal(t, int64(7), claims.ID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice", claims.Subject)
	got, ok := claims.Expiry()
	require.True(t, ok)
	assert.True(t, exp.Equal(got))
	assert.True(t, claims.IsAdmin())
	assert.False(t, claims.IsUser())
}

func TestDecode_IgnoresSignatureAndExpiry(t *testing.T) {
	token := signToken(t, session.RoleUser, 3, "bob", time.Now().Add(-24*time.Hour))

	claims, err := session.Decode(token)

	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Username)
	assert.True(t, claims.IsUser())
}

func TestDecode_Malformed(t *testing.T) {
	for _, token := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.!!!.sig"} {
		claims, err := session.Decode(token)

		assert.ErrorIs(t, err, session.ErrMalformedToken, "token %q", token)
		assert.Nil(t, claims)
	}
}

func TestClaims_NilSafe(t *testing.T) {
	var c *session.Claims

	_, ok := c.Expiry()
	assert.False(t, ok)
	assert.False(t, c.IsAdmin())
	assert.False(t, c.IsUser())
}

// --- Store ---

func TestStore_SetWritesStrictCookie(t *testing.T) {
	store := session.NewStore("session_token", true)
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	w := httptest.NewRecorder()

	store.Set(w, "tok", exp)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "session_token", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.True(t, exp.Equal(c.Expires))
}

func TestStore_SetInsecureOutsideProduction(t *testing.T) {
	store := session.NewStore("session_token", false)
	w := httptest.NewRecorder()

	store.Set(w, "tok", time.Now().Add(time.Hour))

	assert.False(t, w.Result().Cookies()[0].Secure)
}

func TestStore_ClearExpiresCookie(t *testing.T) {
	store := session.NewStore("session_token", false)
	w := httptest.NewRecorder()

	store.Clear(w)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "session_token", c.Name)
	assert.Equal(t, "", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, -1, c.MaxAge)
	assert.True(t, c.Expires.Before(time.Now()))
}

func TestStore_Get(t *testing.T) {
	store := session.NewStore("session_token", false)

	_, ok := store.Get(requestWithCookies())
	assert.False(t, ok, "missing cookie")

	_, ok = store.Get(requestWithCookies(&http.Cookie{Name: "session_token", Value: ""}))
	assert.False(t, ok, "empty cookie")

	token, ok := store.Get(requestWithCookies(&http.Cookie{Name: "session_token", Value: "abc"}))
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}

// --- Reader ---

func TestReader_IsAuthenticated(t *testing.T) {
	rd := session.NewReader(session.NewStore("session_token", false))

	assert.False(t, rd.IsAuthenticated(requestWithCookies()))
	assert.False(t, rd.IsAuthenticated(requestWithCookies(&http.Cookie{Name: "session_token", Value: ""})))
	assert.True(t, rd.IsAuthenticated(requestWithCookies(&http.Cookie{Name: "session_token", Value: "not-even-a-jwt"})))
}

func TestReader_UserInfo(t *testing.T) {
	rd := session.NewReader(session.NewStore("session_token", false))
	token := signToken(t, session.RoleUser, 11, "carol", time.Now().Add(time.Hour))

	claims, ok := rd.UserInfo(requestWithCookies(&http.Cookie{Name: "session_token", Value: token}))
	require.True(t, ok)
	assert.Equal(t, "carol", claims.Username)

	claims, ok = rd.UserInfo(requestWithCookies())
	assert.False(t, ok)
	assert.Nil(t, claims)

	claims, ok = rd.UserInfo(requestWithCookies(&http.Cookie{Name: "session_token", Value: "broken"}))
	assert.False(t, ok)
	assert.Nil(t, claims)
}

func TestReader_LoadKeepsUndecodableToken(t *testing.T) {
	rd := session.NewReader(session.NewStore("session_token", false))

	s := rd.Load(requestWithCookies(&http.Cookie{Name: "session_token", Value: "broken"}))

	assert.True(t, s.Authenticated())
	assert.Equal(t, "broken", s.Token)
	assert.Nil(t, s.Claims)
}

func TestContext_RoundTrip(t *testing.T) {
	assert.False(t, session.FromContext(context.Background()).Authenticated())

	ctx := session.NewContext(context.Background(), session.Session{Token: "tok"})

	assert.Equal(t, "tok", session.FromContext(ctx).Token)
}
