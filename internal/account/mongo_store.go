package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// MongoStore implements Store backed by a MongoDB collection.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates a new instance of Store using the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(usersCollection)}
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*Account, error) {
	var a Account
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var a Account
	err := s.col.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *MongoStore) Insert(ctx context.Context, a *Account) (*Account, error) {
	now := time.Now()
	a.Email = strings.ToLower(a.Email)
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Cart == nil {
		a.Cart = []CartItem{}
	}

	result, err := s.col.InsertOne(ctx, a)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	a.ID = result.InsertedID.(primitive.ObjectID)
	return a, nil
}

func (s *MongoStore) Update(ctx context.Context, a *Account) error {
	a.UpdatedAt = time.Now()
	result, err := s.col.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *MongoStore) ReplaceCart(ctx context.Context, id primitive.ObjectID, cart []CartItem) error {
	if cart == nil {
		cart = []CartItem{}
	}
	update := bson.M{"$set": bson.M{"cart": cart, "updatedAt": time.Now()}}
	result, err := s.col.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, params ListParams) ([]Account, int64, error) {
	filter := bson.M{}
	if params.Role != "" {
		filter["role"] = params.Role
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

	var accounts []Account
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// EnsureIndexes creates the unique email index. Call once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
