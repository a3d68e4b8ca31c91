package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, c *CookieCodec, s *Session) (*Session, *http.Cookie) {
	t.Helper()

	rec := httptest.NewRecorder()
	require.NoError(t, c.Save(rec, s))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	return c.Load(req), cookies[0]
}

func TestCookieCodec_RoundTrip(t *testing.T) {
	c := NewCookieCodec("test-secret", false)

	s := &Session{}
	s.Login(t0)
	s.SetFlash("saved")

	got, ck := roundTrip(t, c, s)
	assert.Equal(t, s, got)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, "/", ck.Path)
}

func TestCookieCodec_EmptySessionExpiresCookie(t *testing.T) {
	c := NewCookieCodec("test-secret", true)

	_, ck := roundTrip(t, c, &Session{})
	assert.Equal(t, -1, ck.MaxAge)
	assert.True(t, ck.Secure)
}

func TestCookieCodec_RejectsForeignSignature(t *testing.T) {
	good := NewCookieCodec("secret-a", false)
	evil := NewCookieCodec("secret-b", false)

	raw, err := evil.Encode(&Session{Authenticated: true, LastActivity: "2026-01-01T00:00:00Z"})
	require.NoError(t, err)

	_, err = good.Decode(raw)
	assert.Error(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: raw})
	assert.True(t, good.Load(req).IsZero())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "not-a-token"})
	assert.True(t, good.Load(req).IsZero())
}

func TestCookieCodec_SaveReplacesQueuedCookie(t *testing.T) {
	c := NewCookieCodec("test-secret", false)
	rec := httptest.NewRecorder()
	http.SetCookie(rec, &http.Cookie{Name: "other", Value: "keep"})

	require.NoError(t, c.Save(rec, &Session{Flash: "first"}))
	require.NoError(t, c.Save(rec, &Session{Flash: "second"}))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, "other", cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[1])
	assert.Equal(t, "second", c.Load(req).Flash)
}
