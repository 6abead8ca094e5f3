package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/cardoctor/internal/metrics"
	"github.com/hitoshi/cardoctor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- モック定義 ---

type mockIssuer struct {
	issueFn func(claim model.IdentityClaim) (string, time.Time, error)
	issued  []model.IdentityClaim
}

func (m *mockIssuer) Issue(claim model.IdentityClaim) (string, time.Time, error) {
	m.issued = append(m.issued, claim)
	if m.issueFn != nil {
		return m.issueFn(claim)
	}
	return "signed-token", time.Now().Add(time.Hour), nil
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- テスト ---

func TestIssueToken_SetsHttpOnlyCookie(t *testing.T) {
	issuer := &mockIssuer{}
	h := NewAuthHandler(issuer, AuthHandlerConfig{TokenTTL: time.Hour}, metrics.Nop{})

	req := httptest.NewRequest(http.MethodPost, "/jwtToken", strings.NewReader(`{"email":"u@test.com","name":"U"}`))
	w := httptest.NewRecorder()

	h.IssueToken(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body["success"])

	cookie := findCookie(resp, "token")
	require.NotNil(t, cookie)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	require.Len(t, issuer.issued, 1)
	assert.Equal(t, "u@test.com", issuer.issued[0].Email)
	assert.Equal(t, "U", issuer.issued[0].Extra["name"])
}

func TestIssueToken_SecureCookieFromConfig(t *testing.T) {
	h := NewAuthHandler(&mockIssuer{}, AuthHandlerConfig{
		TokenTTL:       30 * time.Minute,
		CookieSecure:   true,
		CookieSameSite: http.SameSiteNoneMode,
		CookieDomain:   "example.com",
	}, metrics.Nop{})

	req := httptest.NewRequest(http.MethodPost, "/jwtToken", strings.NewReader(`{"email":"u@test.com"}`))
	w := httptest.NewRecorder()

	h.IssueToken(w, req)

	cookie := findCookie(w.Result(), "token")
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
	assert.Equal(t, 1800, cookie.MaxAge)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, "example.com", cookie.Domain)
}

func TestIssueToken_InvalidBody_Returns400(t *testing.T) {
	for _, body := range []string{"", "not json", "[1,2]", "null"} {
		t.Run(body, func(t *testing.T) {
			issuer := &mockIssuer{}
			h := NewAuthHandler(issuer, AuthHandlerConfig{TokenTTL: time.Hour}, metrics.Nop{})

			req := httptest.NewRequest(http.MethodPost, "/jwtToken", strings.NewReader(body))
			w := httptest.NewRecorder()

			h.IssueToken(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
			assert.Empty(t, issuer.issued)
			assert.Nil(t, findCookie(w.Result(), "token"))
		})
	}
}

func TestIssueToken_SigningFailure_Returns500(t *testing.T) {
	issuer := &mockIssuer{
		issueFn: func(model.IdentityClaim) (string, time.Time, error) {
			return "", time.Time{}, errors.New("sign failed")
		},
	}
	h := NewAuthHandler(issuer, AuthHandlerConfig{TokenTTL: time.Hour}, metrics.Nop{})

	req := httptest.NewRequest(http.MethodPost, "/jwtToken", strings.NewReader(`{"email":"u@test.com"}`))
	w := httptest.NewRecorder()

	h.IssueToken(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode)
	assert.Nil(t, findCookie(w.Result(), "token"))
}

func TestLogout_ClearsCookie(t *testing.T) {
	h := NewAuthHandler(&mockIssuer{}, AuthHandlerConfig{TokenTTL: time.Hour}, metrics.Nop{})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "signed-token"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := findCookie(resp, "token")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
}
