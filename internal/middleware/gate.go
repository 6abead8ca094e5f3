// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/cardoctor/internal/metrics"
	"github.com/hitoshi/cardoctor/internal/model"
)

// TokenCookieName はアクセストークンを保持するCookieの名前。
const TokenCookieName = "token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimContextKey はリクエストコンテキストに検証済みIdentityClaimを格納するためのキー。
var claimContextKey = contextKey("identity_claim")

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
// auth.TokenIssuerが実装する。
type TokenVerifier interface {
	Verify(token string) (*model.IdentityClaim, error)
}

// NewAccessGate はCookieのアクセストークンを検証するミドルウェアを返す。
// トークンがなければ401 UNAUTHENTICATED、検証に失敗すれば401 INVALID_TOKENで打ち切る。
// 検証に成功した場合はIdentityClaimをリクエストコンテキストに注入して次へ進む。
func NewAccessGate(verifier TokenVerifier, recorder metrics.Recorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Cookieからトークンを取得
			cookie, err := r.Cookie(TokenCookieName)
			if err != nil || cookie.Value == "" {
				recorder.RecordAuthOutcome(metrics.AuthMissing)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
				return
			}

			// 2. 署名と有効期限を検証
			claim, err := verifier.Verify(cookie.Value)
			if err != nil {
				recorder.RecordAuthOutcome(metrics.AuthInvalid)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialError())
				return
			}

			// 3. 検証済みのClaimをコンテキストに注入
			recorder.RecordAuthOutcome(metrics.AuthAdmitted)
			setLoggedEmail(r.Context(), claim.Email)
			next.ServeHTTP(w, r.WithContext(ContextWithClaim(r.Context(), claim)))
		})
	}
}

// ClaimFromContext はゲートを通過したリクエストのIdentityClaimを返す。
func ClaimFromContext(ctx context.Context) (*model.IdentityClaim, bool) {
	claim, ok := ctx.Value(claimContextKey).(*model.IdentityClaim)
	return claim, ok && claim != nil
}

// ContextWithClaim はコンテキストにIdentityClaimを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaim(ctx context.Context, claim *model.IdentityClaim) context.Context {
	return context.WithValue(ctx, claimContextKey, claim)
}
