package bookings

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, b Booking) error
	GetByID(ctx context.Context, id string) (Booking, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]Booking, error)
	ListActiveAt(ctx context.Context, serviceID, date, clock string) ([]Booking, error)
	ListActiveOnDate(ctx context.Context, serviceID, date string) ([]Booking, error)
	ListByDate(ctx context.Context, date string, statuses []Status) ([]Booking, error)
	ListAll(ctx context.Context, limit, offset int64) ([]Booking, error)
	TransitionStatus(ctx context.Context, id string, from, to Status, reason string, now time.Time) (Booking, error)
	UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus, now time.Time) (Booking, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, b Booking) error {
	_, err := r.col.InsertOne(ctx, b)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Booking, error) {
	var b Booking
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return Booking{}, err
	}
	return b, nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

func (r *MongoRepository) ListActiveAt(ctx context.Context, serviceID, date, clock string) ([]Booking, error) {
	filter := bson.M{
		"serviceId": serviceID,
		"date":      date,
		"time":      clock,
		"status":    bson.M{"$in": activeStatuses},
	}
	return r.find(ctx, filter, options.Find())
}

func (r *MongoRepository) ListActiveOnDate(ctx context.Context, serviceID, date string) ([]Booking, error) {
	filter := bson.M{
		"serviceId": serviceID,
		"date":      date,
		"status":    bson.M{"$in": activeStatuses},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "time", Value: 1}}))
}

func (r *MongoRepository) ListByDate(ctx context.Context, date string, statuses []Status) ([]Booking, error) {
	filter := bson.M{"date": date}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "time", Value: 1}}))
}

// ListAll sorts on createdAt then _id so that skip-based pages never overlap.
func (r *MongoRepository) ListAll(ctx context.Context, limit, offset int64) ([]Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	return r.find(ctx, bson.M{}, opts)
}

// TransitionStatus is a compare-and-swap on status: it only matches while the stored status
// still equals from, and returns mongo.ErrNoDocuments otherwise.
func (r *MongoRepository) TransitionStatus(ctx context.Context, id string, from, to Status, reason string, now time.Time) (Booking, error) {
	set := bson.M{
		"status":    to,
		"updatedAt": now,
	}
	unset := bson.M{}
	if to == StatusCancelled {
		set["cancellationReason"] = reason
	} else {
		unset["cancellationReason"] = ""
	}
	if !to.IsActive() {
		unset["slotKey"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Booking
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update, opts).Decode(&updated); err != nil {
		return Booking{}, err
	}
	return updated, nil
}

func (r *MongoRepository) UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus, now time.Time) (Booking, error) {
	update := bson.M{
		"$set": bson.M{
			"paymentStatus": status,
			"updatedAt":     now,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Booking
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return Booking{}, err
	}
	return updated, nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Booking, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Booking, 0)
	for cursor.Next(ctx) {
		var b Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
