package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/cardoctor/internal/model"
)

// PostgresOrderRepo はPostgreSQLのJSONBカラムをドキュメントストアとして使用する注文リポジトリ。
// email・statusは検索と更新のため専用カラムに持ち、それ以外の詳細はdocに格納する。
type PostgresOrderRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresOrderRepo はPostgresOrderRepoを生成する。
func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db, now: time.Now}
}

// Create は注文を作成する。IDはUUIDv4で採番する。
func (r *PostgresOrderRepo) Create(ctx context.Context, order *model.Order) (*model.InsertResult, error) {
	doc, err := encodeOrderDetails(order)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	now := r.now()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO orders (id, email, status, doc, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, order.Email, string(order.Status), string(doc), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return &model.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// List はフィルタに一致する注文を作成順に返す。
func (r *PostgresOrderRepo) List(ctx context.Context, filter model.OrderFilter) ([]*model.Order, error) {
	query := `SELECT id, email, status, doc FROM orders`
	var args []any
	if filter.Email != "" {
		query += ` WHERE email = $1`
		args = append(args, filter.Email)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*model.Order, 0)
	for rows.Next() {
		var (
			order  model.Order
			status string
			doc    []byte
		)
		if err := rows.Scan(&order.ID, &order.Email, &status, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		order.Status = model.OrderStatus(status)
		if len(doc) > 0 {
			if err := json.Unmarshal(doc, &order.Details); err != nil {
				return nil, fmt.Errorf("failed to decode order %s: %w", order.ID, err)
			}
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus は注文のstatusを更新する。
// 一致件数と、実際に値が変わった件数を区別して返す。
func (r *PostgresOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.UpdateResult, error) {
	if !validPostgresID(id) {
		return nil, ErrInvalidID
	}

	result := &model.UpdateResult{Acknowledged: true}
	err := r.db.QueryRowContext(ctx,
		`WITH target AS (
		     SELECT id, status FROM orders WHERE id = $2
		 ), updated AS (
		     UPDATE orders o SET status = $1, updated_at = $3
		     FROM target t
		     WHERE o.id = t.id AND t.status IS DISTINCT FROM $1
		     RETURNING o.id
		 )
		 SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM updated)`,
		string(status), id, r.now(),
	).Scan(&result.MatchedCount, &result.ModifiedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	return result, nil
}

// Delete は注文を削除する。
func (r *PostgresOrderRepo) Delete(ctx context.Context, id string) (*model.DeleteResult, error) {
	if !validPostgresID(id) {
		return nil, ErrInvalidID
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM orders WHERE id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete order: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return &model.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}

// encodeOrderDetails は専用カラムに持つフィールドを除いた詳細をJSONにする。
// lib/pqは[]byteをbyteaとして送るため、呼び出し側でstringに変換して渡す。
func encodeOrderDetails(order *model.Order) ([]byte, error) {
	details := order.Fields()
	delete(details, "email")
	delete(details, "status")

	doc, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}
	return doc, nil
}
