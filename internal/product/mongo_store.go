package product

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const productsCollection = "products"

// MongoStore implements Store backed by a MongoDB collection.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates a new instance of Store using the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(productsCollection)}
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*Product, error) {
	var p Product
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) FindAll(ctx context.Context) ([]Product, error) {
	return s.find(ctx, bson.M{})
}

func (s *MongoStore) FindByCategory(ctx context.Context, category string) ([]Product, error) {
	return s.find(ctx, bson.M{"category": category})
}

func (s *MongoStore) FindByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]Product, error) {
	return s.find(ctx, bson.M{"user": farmerID})
}

func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *MongoStore) Insert(ctx context.Context, p *Product) (*Product, error) {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	result, err := s.col.InsertOne(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = result.InsertedID.(primitive.ObjectID)
	return p, nil
}

func (s *MongoStore) Update(ctx context.Context, p *Product) error {
	p.UpdatedAt = time.Now()
	result, err := s.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *MongoStore) SetStock(ctx context.Context, id primitive.ObjectID, stock int32) error {
	if stock < 0 {
		return ErrNegativeStock
	}
	update := bson.M{"$set": bson.M{"countInStock": stock, "updatedAt": time.Now()}}
	result, err := s.col.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

// EnsureIndexes creates the owner and category indexes. Call once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	return err
}
