package session

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_NoCookie(t *testing.T) {
	r := NewResolver(signedCodec(t), "", 0, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	res := r.FromRequest(req)
	assert.False(t, res.Valid)
	assert.Nil(t, res.Session)
}

func TestResolver_IssueThenResolve(t *testing.T) {
	r := NewResolver(signedCodec(t), "", 0, true)
	s := Session{ClientID: "c_123", ClientSlug: "acme-inc", UserID: "u_1", Role: RoleAdmin}

	rec := httptest.NewRecorder()
	require.NoError(t, r.Issue(rec, s))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, DefaultCookieName, ck.Name)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, 7*24*60*60, ck.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(ck)
	res := r.FromRequest(req)
	require.True(t, res.Valid)
	assert.Equal(t, s, *res.Session)
}

func TestResolver_LegacyJSONCookie(t *testing.T) {
	c, err := NewCodec("", false, true)
	require.NoError(t, err)
	r := NewResolver(c, "", 0, false)

	rec := httptest.NewRecorder()
	s := Session{ClientID: "c_1", UserID: "u_1", Role: RoleViewer}
	require.NoError(t, r.Issue(rec, s))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	res := r.FromRequest(req)
	require.True(t, res.Valid)
	assert.Equal(t, s, *res.Session)

	raw := httptest.NewRequest(http.MethodGet, "/", nil)
	raw.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: url.QueryEscape(`{"clientId":"c_2","userId":"u_2"}`)})
	res = r.FromRequest(raw)
	require.True(t, res.Valid)
	assert.Equal(t, "c_2", res.Session.ClientID)
}

func TestResolver_GarbageCookie(t *testing.T) {
	r := NewResolver(signedCodec(t), "", 0, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "%zz"})
	assert.False(t, r.FromRequest(req).Valid)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "abc.def"})
	assert.False(t, r.FromRequest(req).Valid)
}

func TestResolver_NilSafe(t *testing.T) {
	assert.False(t, NewResolver(nil, "", 0, false).FromRequest(httptest.NewRequest(http.MethodGet, "/", nil)).Valid)
	assert.False(t, NewResolver(signedCodec(t), "", 0, false).FromRequest(nil).Valid)
}

func TestResolver_Clear(t *testing.T) {
	r := NewResolver(signedCodec(t), "custom", 0, false)
	rec := httptest.NewRecorder()
	r.Clear(rec)

	ck := rec.Result().Cookies()[0]
	assert.Equal(t, "custom", ck.Name)
	assert.Empty(t, ck.Value)
	assert.Less(t, ck.MaxAge, 0)
}
