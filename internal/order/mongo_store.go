package order

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

// MongoStore implements Store backed by a MongoDB collection.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates a new instance of Store using the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(ordersCollection)}
}

func (s *MongoStore) Insert(ctx context.Context, o *Order) (*Order, error) {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now

	result, err := s.col.InsertOne(ctx, o)
	if err != nil {
		return nil, err
	}
	o.ID = result.InsertedID.(primitive.ObjectID)
	return o, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*Order, error) {
	var o Order
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *MongoStore) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.col.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *MongoStore) Update(ctx context.Context, o *Order) error {
	o.UpdatedAt = time.Now()
	result, err := s.col.ReplaceOne(ctx, bson.M{"_id": o.ID}, o)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, params ListParams) ([]Order, int64, error) {
	filter := bson.M{}
	if params.Status != "" {
		filter["status"] = params.Status
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(params.Offset).
		SetLimit(params.Limit)
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var orders []Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// EnsureIndexes creates the per-user listing index. Call once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}
