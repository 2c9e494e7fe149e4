// Package product holds farm product listings and their stock counters.
package product

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a farm product listing. Price is per kg. Stock must never be
// mutated to a negative value.
type Product struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Stock     int32              `bson:"countInStock" json:"countInStock"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Category  string             `bson:"category,omitempty" json:"category,omitempty"`
	Location  string             `bson:"location,omitempty" json:"location,omitempty"`
	FarmerID  primitive.ObjectID `bson:"user" json:"farmerId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Store is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type Store interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id primitive.ObjectID) (*Product, error)

	// FindAll returns all products.
	FindAll(ctx context.Context) ([]Product, error)

	// FindByCategory returns all products with the given category.
	FindByCategory(ctx context.Context, category string) ([]Product, error)

	// FindByFarmer returns all products listed by the given farmer.
	FindByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]Product, error)

	// Insert adds a new product and returns it with its assigned ID.
	Insert(ctx context.Context, p *Product) (*Product, error)

	// Update replaces the stored product document.
	// Returns ErrProductNotFound if the product does not exist.
	Update(ctx context.Context, p *Product) error

	// SetStock overwrites the product's stock counter as a single-field write.
	// Returns ErrProductNotFound if the product does not exist.
	SetStock(ctx context.Context, id primitive.ObjectID, stock int32) error

	// Delete removes a product.
	// Returns ErrProductNotFound if the product does not exist.
	Delete(ctx context.Context, id primitive.ObjectID) error
}
