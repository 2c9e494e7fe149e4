package account

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListParams narrows and pages an account listing.
type ListParams struct {
	Role   Role
	Offset int64
	Limit  int64
}

// Store is an interface for account storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type Store interface {
	// FindByID retrieves a single account by its unique identifier.
	// Returns ErrAccountNotFound if no account exists with the given ID.
	FindByID(ctx context.Context, id primitive.ObjectID) (*Account, error)

	// FindByEmail retrieves a single account by email (stored lowercased).
	// Returns ErrAccountNotFound if no account exists with the given email.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// Insert adds a new account and returns it with its assigned ID.
	Insert(ctx context.Context, a *Account) (*Account, error)

	// Update replaces the stored account document.
	// Returns ErrAccountNotFound if the account does not exist.
	Update(ctx context.Context, a *Account) error

	// ReplaceCart overwrites the account's cart as a single-document write.
	ReplaceCart(ctx context.Context, id primitive.ObjectID, cart []CartItem) error

	// Delete removes an account.
	// Returns ErrAccountNotFound if the account does not exist.
	Delete(ctx context.Context, id primitive.ObjectID) error

	// List returns a page of accounts plus the total count for the filter.
	List(ctx context.Context, params ListParams) ([]Account, int64, error)
}
