package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// Kind はDATABASE_URLから判別したドキュメントストアの種別。
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindMongo    Kind = "mongo"
)

// DetectKind はURLのスキームからストア種別を判別する。
func DetectKind(databaseURL string) (Kind, error) {
	scheme, _, ok := strings.Cut(databaseURL, "://")
	if !ok {
		return "", fmt.Errorf("database URL has no scheme")
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return KindPostgres, nil
	case "mongodb", "mongodb+srv":
		return KindMongo, nil
	default:
		return "", fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// Open はPostgreSQLデータベース接続を開く。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}
