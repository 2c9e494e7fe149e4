package order

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListParams narrows and pages an order listing.
type ListParams struct {
	Status Status
	Offset int64
	Limit  int64
}

// Store is an interface for order storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type Store interface {
	// Insert adds a new order and returns it with its assigned ID.
	Insert(ctx context.Context, o *Order) (*Order, error)

	// FindByID retrieves a single order by its unique identifier.
	// Returns ErrOrderNotFound if no order exists with the given ID.
	FindByID(ctx context.Context, id primitive.ObjectID) (*Order, error)

	// FindByUser returns all orders of the given account, newest first.
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]Order, error)

	// Update replaces the stored order document.
	// Returns ErrOrderNotFound if the order does not exist.
	Update(ctx context.Context, o *Order) error

	// List returns a page of orders plus the total count for the filter,
	// newest first.
	List(ctx context.Context, params ListParams) ([]Order, int64, error)
}
