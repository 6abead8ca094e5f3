package model

import "encoding/json"

// summaryKeys はサービス詳細取得時に返すフィールド（_idは常に含める）。
var summaryKeys = []string{"title", "price", "img"}

// Service は予約サイトで提供する整備サービスのドキュメントを表す。
// スキーマは持たず、_id以外のフィールドはDetailsにそのまま保持する。
type Service struct {
	ID      string
	Details map[string]any
}

// Fields はサービスをフラットなドキュメントに変換する。IDは含めない。
func (s *Service) Fields() map[string]any {
	doc := make(map[string]any, len(s.Details))
	for k, v := range s.Details {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}
	return doc
}

// Summary はサービス詳細取得用の射影（_id, title, price, img）を返す。
// ドキュメントに存在しないフィールドは含めない。
func (s *Service) Summary() map[string]any {
	doc := map[string]any{"_id": s.ID}
	for _, k := range summaryKeys {
		if v, ok := s.Details[k]; ok {
			doc[k] = v
		}
	}
	return doc
}

// MarshalJSON はDetailsをトップレベルに展開してエンコードする。
func (s Service) MarshalJSON() ([]byte, error) {
	doc := s.Fields()
	doc["_id"] = s.ID
	return json.Marshal(doc)
}

// UnmarshalJSON はJSONオブジェクトをServiceにデコードする。
func (s *Service) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*s = ServiceFromFields(doc)
	return nil
}

// ServiceFromFields はフラットなドキュメントからServiceを生成する。
func ServiceFromFields(doc map[string]any) Service {
	s := Service{}
	if id, ok := doc["_id"].(string); ok {
		s.ID = id
	}
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		if s.Details == nil {
			s.Details = make(map[string]any)
		}
		s.Details[k] = v
	}
	return s
}
