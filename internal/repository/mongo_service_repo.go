package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/cardoctor/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB上のコレクション名
const (
	servicesCollection = "services"
	ordersCollection   = "orders"
)

// MongoServiceRepo はMongoDBのservicesコレクションを使用するサービスリポジトリ。
type MongoServiceRepo struct {
	coll *mongo.Collection
}

// NewMongoServiceRepo はMongoServiceRepoを生成する。
func NewMongoServiceRepo(db *mongo.Database) *MongoServiceRepo {
	return &MongoServiceRepo{coll: db.Collection(servicesCollection)}
}

// List は全サービスを返す。
func (r *MongoServiceRepo) List(ctx context.Context) ([]*model.Service, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}

	services := make([]*model.Service, 0, len(docs))
	for _, doc := range docs {
		services = append(services, serviceFromBSON(doc))
	}

	return services, nil
}

// FindByID は指定IDのサービスを取得する。見つからない場合はnilを返す。
// IDは24桁の16進数（ObjectID）である必要がある。
func (r *MongoServiceRepo) FindByID(ctx context.Context, id string) (*model.Service, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var doc bson.M
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find service by ID: %w", err)
	}

	return serviceFromBSON(doc), nil
}

// serviceFromBSON はドキュメントを加工せずにServiceへ詰め替える。
func serviceFromBSON(doc bson.M) *model.Service {
	doc["_id"] = objectIDString(doc["_id"])
	service := model.ServiceFromFields(doc)
	return &service
}
