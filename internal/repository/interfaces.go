// Package repository はデータ永続化のインターフェースと
// ドキュメントストア（PostgreSQL JSONB / MongoDB）による実装を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/cardoctor/internal/model"
)

// ErrInvalidID はストアが受け付けない形式のIDが指定された場合に返される。
var ErrInvalidID = errors.New("invalid document id")

// ServiceRepository は整備サービスの永続化インターフェース。
type ServiceRepository interface {
	// List は全サービスを返す。
	List(ctx context.Context) ([]*model.Service, error)

	// FindByID は指定IDのサービスを取得する。見つからない場合はnilを返す。
	// IDの形式が不正な場合はErrInvalidIDを返す。
	FindByID(ctx context.Context, id string) (*model.Service, error)
}

// OrderRepository は注文ドキュメントの永続化インターフェース。
// アクセス制御は行わず、呼び出し側（ハンドラー）で判定済みであることを前提とする。
type OrderRepository interface {
	// Create は注文を作成し、採番されたIDを返す。
	Create(ctx context.Context, order *model.Order) (*model.InsertResult, error)

	// List はフィルタに一致する注文を返す。filter.Emailが空の場合は全件を返す。
	List(ctx context.Context, filter model.OrderFilter) ([]*model.Order, error)

	// UpdateStatus は注文のstatusのみを更新する。
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.UpdateResult, error)

	// Delete は注文を削除する。
	Delete(ctx context.Context, id string) (*model.DeleteResult, error)
}

// Pinger はストアへの疎通確認のインターフェース。ヘルスチェックで使用する。
type Pinger interface {
	PingContext(ctx context.Context) error
}
