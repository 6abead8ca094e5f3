// Package auth はCredential（署名付きトークン）の発行と検証を提供する。
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/cardoctor/internal/model"
)

// DefaultTokenTTL はCredentialのデフォルト有効期間。
const DefaultTokenTTL = time.Hour

// ErrInvalidCredential は署名不一致、期限切れ、形式不正などで
// Credentialを受け入れられない場合に返される。
var ErrInvalidCredential = errors.New("invalid or expired credential")

// TokenConfig はトークン発行・検証の設定。
type TokenConfig struct {
	Secret string           // 署名用の共有シークレット
	TTL    time.Duration    // 有効期間。0以下の場合はDefaultTokenTTL
	Now    func() time.Time // 現在時刻。nilの場合はtime.Now
}

// TokenIssuer はHS256で署名したJWTを発行・検証する。
// 状態は生成後に変更されないため、複数goroutineから同時に使用できる。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(config TokenConfig) *TokenIssuer {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{
		secret: []byte(config.Secret),
		ttl:    ttl,
		now:    now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(now),
		),
	}
}

// TTL はCredentialの有効期間を返す。
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue はIdentityClaimに署名し、有効期限を埋め込んだCredentialを返す。
// 一意性チェックや失効リストは持たない。
func (i *TokenIssuer) Issue(claim model.IdentityClaim) (string, time.Time, error) {
	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)

	claims := jwt.MapClaims{}
	for k, v := range claim.Fields() {
		claims[k] = v
	}
	claims["iat"] = jwt.NewNumericDate(issuedAt)
	claims["exp"] = jwt.NewNumericDate(expiresAt)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign credential: %w", err)
	}
	return token, expiresAt, nil
}

// Verify はCredentialの署名と有効期限を検証し、埋め込まれたIdentityClaimを返す。
// 検証に失敗した場合はErrInvalidCredentialをラップしたエラーを返す。
// emailを持たないCredentialも不正として扱う。
func (i *TokenIssuer) Verify(token string) (*model.IdentityClaim, error) {
	claims := jwt.MapClaims{}
	if _, err := i.parser.ParseWithClaims(token, claims, i.keyFunc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claim := model.NewIdentityClaim(claims)
	if claim.Email == "" {
		return nil, fmt.Errorf("%w: email claim is missing", ErrInvalidCredential)
	}
	return &claim, nil
}

func (i *TokenIssuer) keyFunc(_ *jwt.Token) (any, error) {
	return i.secret, nil
}
