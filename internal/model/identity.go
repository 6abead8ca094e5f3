// Package model はドメインモデルを定義する。
package model

import "encoding/json"

// IdentityClaim はCredentialに埋め込まれる本人性の主張を表す。
// emailは必須で、それ以外の任意フィールドはExtraに保持する。
// 1リクエストの処理中だけ存在し、サーバー側には保存しない。
type IdentityClaim struct {
	Email string
	Extra map[string]any
}

// reservedClaimKeys はトークン発行側が付与するため、Extraから除外するキー。
var reservedClaimKeys = map[string]struct{}{
	"email": {},
	"exp":   {},
	"iat":   {},
	"nbf":   {},
}

// NewIdentityClaim は任意のJSONオブジェクトからIdentityClaimを生成する。
// emailが文字列でない場合は空文字として扱う。
func NewIdentityClaim(fields map[string]any) IdentityClaim {
	claim := IdentityClaim{}
	if email, ok := fields["email"].(string); ok {
		claim.Email = email
	}
	for k, v := range fields {
		if _, reserved := reservedClaimKeys[k]; reserved {
			continue
		}
		if claim.Extra == nil {
			claim.Extra = make(map[string]any)
		}
		claim.Extra[k] = v
	}
	return claim
}

// Fields はIdentityClaimをフラットなフィールドマップに変換する。
func (c IdentityClaim) Fields() map[string]any {
	fields := make(map[string]any, len(c.Extra)+1)
	for k, v := range c.Extra {
		if _, reserved := reservedClaimKeys[k]; reserved {
			continue
		}
		fields[k] = v
	}
	if c.Email != "" {
		fields["email"] = c.Email
	}
	return fields
}

// MarshalJSON はExtraをトップレベルに展開してエンコードする。
func (c IdentityClaim) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Fields())
}

// UnmarshalJSON はJSONオブジェクトをIdentityClaimにデコードする。
func (c *IdentityClaim) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*c = NewIdentityClaim(fields)
	return nil
}
