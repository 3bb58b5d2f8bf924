package catalog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, svc Service) error
	GetByID(ctx context.Context, id string) (Service, error)
	List(ctx context.Context, activeOnly bool) ([]Service, error)
	Update(ctx context.Context, id string, req UpdateRequest, now time.Time) (Service, error)
	SetActive(ctx context.Context, id string, active bool, now time.Time) (Service, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, svc Service) error {
	_, err := r.col.InsertOne(ctx, svc)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Service, error) {
	var svc Service
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&svc); err != nil {
		return Service{}, err
	}
	return svc, nil
}

func (r *MongoRepository) List(ctx context.Context, activeOnly bool) ([]Service, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Service, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, req UpdateRequest, now time.Time) (Service, error) {
	return r.findOneAndSet(ctx, id, bson.M{
		"name":        req.Name,
		"description": req.Description,
		"category":    req.Category,
		"price":       req.Price,
		"duration":    req.Duration,
		"updatedAt":   now,
	})
}

func (r *MongoRepository) SetActive(ctx context.Context, id string, active bool, now time.Time) (Service, error) {
	return r.findOneAndSet(ctx, id, bson.M{
		"active":    active,
		"updatedAt": now,
	})
}

func (r *MongoRepository) findOneAndSet(ctx context.Context, id string, set bson.M) (Service, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Service
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return Service{}, err
	}
	return updated, nil
}
