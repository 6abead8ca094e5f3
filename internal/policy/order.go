// Package policy は注文リソースに対するアクセス制御ポリシーを提供する。
package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/cardoctor/internal/model"
)

// ErrIdentityMismatch は認証済みユーザーのemailと要求されたemailフィルタが
// 一致しない場合に返される。
var ErrIdentityMismatch = errors.New("identity does not match requested email")

// FilterMode はemailフィルタが省略された場合の振る舞いを表す。
type FilterMode string

const (
	// FilterModeScope はフィルタ省略時に呼び出し元自身のemailで絞り込む。
	FilterModeScope FilterMode = "scope"
	// FilterModeRequire はフィルタ省略時に拒否する。
	FilterModeRequire FilterMode = "require"
	// FilterModeOpen はフィルタ省略時に全件の参照を許可する。
	// 認証済みであれば他人の注文も見えるため、互換性が必要な場合のみ使用する。
	FilterModeOpen FilterMode = "open"
)

// UnmarshalText はencoding.TextUnmarshalerを実装する。
func (m *FilterMode) UnmarshalText(text []byte) error {
	v := FilterMode(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case FilterModeScope, FilterModeRequire, FilterModeOpen:
		*m = v
		return nil
	default:
		return fmt.Errorf("invalid FilterMode: %q (valid options: scope, require, open)", string(text))
	}
}

// OrderAccessPolicy は注文一覧の参照可否を判定する。
type OrderAccessPolicy struct {
	mode FilterMode
}

// NewOrderAccessPolicy はOrderAccessPolicyを生成する。
// modeが空の場合はFilterModeRequireを使用する。
func NewOrderAccessPolicy(mode FilterMode) *OrderAccessPolicy {
	if mode == "" {
		mode = FilterModeRequire
	}
	return &OrderAccessPolicy{mode: mode}
}

// Mode は現在のフィルタモードを返す。
func (p *OrderAccessPolicy) Mode() FilterMode {
	return p.mode
}

// Authorize はCredentialのIdentityClaimと要求されたemailフィルタを比較し、
// 許可された場合はリソースハンドラーへ渡す検索条件を返す。
// presentはクエリにemailパラメータが含まれていたかどうかを表す。
func (p *OrderAccessPolicy) Authorize(claim model.IdentityClaim, filter string, present bool) (model.OrderFilter, error) {
	if present {
		if filter != claim.Email {
			return model.OrderFilter{}, ErrIdentityMismatch
		}
		return model.OrderFilter{Email: filter}, nil
	}

	switch p.mode {
	case FilterModeOpen:
		return model.OrderFilter{}, nil
	case FilterModeRequire:
		return model.OrderFilter{}, ErrIdentityMismatch
	default:
		if claim.Email == "" {
			return model.OrderFilter{}, ErrIdentityMismatch
		}
		return model.OrderFilter{Email: claim.Email}, nil
	}
}
