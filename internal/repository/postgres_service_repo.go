package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/cardoctor/internal/model"
)

// PostgresServiceRepo はPostgreSQLのJSONBカラムをドキュメントストアとして使用するサービスリポジトリ。
type PostgresServiceRepo struct {
	db *sql.DB
}

// NewPostgresServiceRepo はPostgresServiceRepoを生成する。
func NewPostgresServiceRepo(db *sql.DB) *PostgresServiceRepo {
	return &PostgresServiceRepo{db: db}
}

// List は全サービスを登録順に返す。
func (r *PostgresServiceRepo) List(ctx context.Context) ([]*model.Service, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, doc FROM services ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := make([]*model.Service, 0)
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		service, err := decodeService(id, doc)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate services: %w", err)
	}

	return services, nil
}

// FindByID は指定IDのサービスを取得する。見つからない場合はnilを返す。
func (r *PostgresServiceRepo) FindByID(ctx context.Context, id string) (*model.Service, error) {
	if !validPostgresID(id) {
		return nil, ErrInvalidID
	}

	var doc []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT doc FROM services WHERE id = $1`,
		id,
	).Scan(&doc)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find service by ID: %w", err)
	}

	return decodeService(id, doc)
}

// decodeService はJSONBドキュメントを加工せずにServiceへ詰め替える。
// 数値は元の表記のまま返すためjson.Numberで保持する。
func decodeService(id string, doc []byte) (*model.Service, error) {
	fields := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode service %s: %w", id, err)
	}
	fields["_id"] = id

	service := model.ServiceFromFields(fields)
	return &service, nil
}

// validPostgresID はIDが8-4-4-4-12形式のUUIDかを判定する。
// uuid.Parseはurn:uuid:接頭辞や波括弧付きの表記も受け付けるため、長さも確認する。
func validPostgresID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
