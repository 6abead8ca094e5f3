package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/cardoctor/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderRepo はMongoDBのordersコレクションを使用する注文リポジトリ。
// 注文はスキーマを持たないドキュメントとしてそのまま保存する。
type MongoOrderRepo struct {
	coll *mongo.Collection
}

// NewMongoOrderRepo はMongoOrderRepoを生成する。
func NewMongoOrderRepo(db *mongo.Database) *MongoOrderRepo {
	return &MongoOrderRepo{coll: db.Collection(ordersCollection)}
}

// EnsureIndexes はemailでの絞り込み用インデックスを作成する。
// 既に存在する場合は何もしない。
func (r *MongoOrderRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("orders_email_idx"),
	})
	if err != nil {
		return fmt.Errorf("failed to create orders email index: %w", err)
	}
	return nil
}

// Create は注文を作成する。IDはMongoDBが採番したObjectIDの16進表現を返す。
func (r *MongoOrderRepo) Create(ctx context.Context, order *model.Order) (*model.InsertResult, error) {
	res, err := r.coll.InsertOne(ctx, bson.M(order.Fields()))
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return &model.InsertResult{
		Acknowledged: true,
		InsertedID:   objectIDString(res.InsertedID),
	}, nil
}

// List はフィルタに一致する注文を返す。
func (r *MongoOrderRepo) List(ctx context.Context, filter model.OrderFilter) ([]*model.Order, error) {
	query := bson.M{}
	if filter.Email != "" {
		query["email"] = filter.Email
	}

	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	orders := make([]*model.Order, 0, len(docs))
	for _, doc := range docs {
		doc["_id"] = objectIDString(doc["_id"])
		order := model.OrderFromFields(doc)
		orders = append(orders, &order)
	}

	return orders, nil
}

// UpdateStatus は注文のstatusを$setで更新する。
func (r *MongoOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	return &model.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}, nil
}

// Delete は注文を削除する。
func (r *MongoOrderRepo) Delete(ctx context.Context, id string) (*model.DeleteResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("failed to delete order: %w", err)
	}

	return &model.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// objectIDString はドキュメントの_idを文字列表現に変換する。
func objectIDString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}
