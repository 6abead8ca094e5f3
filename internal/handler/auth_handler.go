package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/cardoctor/internal/metrics"
	"github.com/hitoshi/cardoctor/internal/middleware"
	"github.com/hitoshi/cardoctor/internal/model"
)

// TokenIssuerInterface は認証ハンドラーが必要とするトークン発行インターフェース。
// auth.TokenIssuerが実装する。
type TokenIssuerInterface interface {
	Issue(claim model.IdentityClaim) (string, time.Time, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
	TokenTTL       time.Duration // Cookieの有効期間。トークンの有効期限と揃える
}

// AuthHandler はトークン発行とログアウトのHTTPハンドラー。
type AuthHandler struct {
	issuer   TokenIssuerInterface
	config   AuthHandlerConfig
	recorder metrics.Recorder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(issuer TokenIssuerInterface, config AuthHandlerConfig, recorder metrics.Recorder) *AuthHandler {
	if config.CookieSameSite == 0 {
		config.CookieSameSite = http.SameSiteLaxMode
	}
	return &AuthHandler{
		issuer:   issuer,
		config:   config,
		recorder: recorder,
	}
}

// IssueToken はリクエストボディのIdentityClaimに署名してCookieに設定する。
// POST /jwtToken
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeJSONBody(w, r, &fields); err != nil || fields == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	token, expiresAt, err := h.issuer.Issue(model.NewIdentityClaim(fields))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.recorder.RecordAuthOutcome(metrics.AuthIssued)

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		Expires:  expiresAt,
		MaxAge:   int(h.config.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: h.config.CookieSameSite,
	})

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Logout はトークンCookieを削除する。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: h.config.CookieSameSite,
	})

	slog.Debug("token cookie cleared")
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
