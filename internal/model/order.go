package model

import "encoding/json"

// OrderStatus は注文の状態を表す。値はクライアントが自由に指定する。
type OrderStatus string

// OrderStatusConfirm は管理画面で承認済みにした注文の状態。
const OrderStatusConfirm OrderStatus = "confirm"

// Order は注文ドキュメントを表す。
// email（所有者）とstatus以外の任意フィールドはDetailsに保持し、
// JSONではトップレベルに展開する。
type Order struct {
	ID      string
	Email   string
	Status  OrderStatus
	Details map[string]any
}

// orderReservedKeys はOrderの専用フィールドに対応するJSONキー。
var orderReservedKeys = map[string]struct{}{
	"_id":    {},
	"email":  {},
	"status": {},
}

// Fields は注文をフラットなドキュメントに変換する。
// IDは含めない（ストアごとに主キーの表現が異なるため）。
func (o *Order) Fields() map[string]any {
	doc := make(map[string]any, len(o.Details)+2)
	for k, v := range o.Details {
		if _, reserved := orderReservedKeys[k]; reserved {
			continue
		}
		doc[k] = v
	}
	doc["email"] = o.Email
	if o.Status != "" {
		doc["status"] = string(o.Status)
	}
	return doc
}

// MarshalJSON はDetailsをトップレベルに展開してエンコードする。
func (o Order) MarshalJSON() ([]byte, error) {
	doc := o.Fields()
	if o.ID != "" {
		doc["_id"] = o.ID
	}
	return json.Marshal(doc)
}

// UnmarshalJSON はJSONオブジェクトをOrderにデコードする。
func (o *Order) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*o = OrderFromFields(doc)
	return nil
}

// OrderFromFields はフラットなドキュメントからOrderを生成する。
func OrderFromFields(doc map[string]any) Order {
	o := Order{}
	if id, ok := doc["_id"].(string); ok {
		o.ID = id
	}
	if email, ok := doc["email"].(string); ok {
		o.Email = email
	}
	if status, ok := doc["status"].(string); ok {
		o.Status = OrderStatus(status)
	}
	for k, v := range doc {
		if _, reserved := orderReservedKeys[k]; reserved {
			continue
		}
		if o.Details == nil {
			o.Details = make(map[string]any)
		}
		o.Details[k] = v
	}
	return o
}

// OrderFilter は注文一覧の検索条件を表す。
// Emailが空の場合は全件を対象とする。
type OrderFilter struct {
	Email string
}

// InsertResult は注文作成の結果を表す。
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateResult は注文更新の結果を表す。
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResult は注文削除の結果を表す。
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
