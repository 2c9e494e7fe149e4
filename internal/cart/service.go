// Package cart manages the per-account shopping cart stored on the
// account document.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/GauravMishra537/Kisaan-Dost/internal/account"
	"github.com/GauravMishra537/Kisaan-Dost/internal/product"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")
var ErrInsufficientStock = errors.New("insufficient stock")

// CartService defines cart read and mutation operations.
type CartService interface {
	// Get returns the account's cart with resolved product snapshots.
	// Entries whose product no longer exists are returned without detail.
	Get(ctx context.Context, accountID primitive.ObjectID) ([]EntryDto, error)

	// Add puts a product in the cart or increments its quantity.
	// Fails with ErrInsufficientStock when the resulting quantity exceeds stock.
	Add(ctx context.Context, accountID, productID primitive.ObjectID, qty int32) ([]EntryDto, error)

	// Remove drops a product from the cart.
	Remove(ctx context.Context, accountID, productID primitive.ObjectID) ([]EntryDto, error)
}

// Service implements CartService over the account and product stores.
type Service struct {
	accounts account.Store
	products product.Store
}

// NewService creates a new instance of CartService.
func NewService(accounts account.Store, products product.Store) *Service {
	return &Service{accounts: accounts, products: products}
}

// EntryDto is a cart entry with its resolved product, when it still exists.
type EntryDto struct {
	ProductID string           `json:"productId"`
	Qty       int32            `json:"qty"`
	Product   *product.Product `json:"product,omitempty"`
}

func (s *Service) Get(ctx context.Context, accountID primitive.ObjectID) ([]EntryDto, error) {
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, a.Cart)
}

func (s *Service) Add(ctx context.Context, accountID, productID primitive.ObjectID, qty int32) ([]EntryDto, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	existing := -1
	for i, item := range a.Cart {
		if item.ProductID == productID {
			existing = i
			break
		}
	}

	newQty := qty
	if existing >= 0 {
		newQty += a.Cart[existing].Qty
	}
	if p.Stock < newQty {
		return nil, fmt.Errorf("only %dkg available for %s: %w", p.Stock, p.Name, ErrInsufficientStock)
	}

	if existing >= 0 {
		a.Cart[existing].Qty = newQty
	} else {
		a.Cart = append(a.Cart, account.CartItem{ProductID: productID, Qty: qty})
	}
	if err := s.accounts.ReplaceCart(ctx, accountID, a.Cart); err != nil {
		return nil, err
	}
	return s.resolve(ctx, a.Cart)
}

func (s *Service) Remove(ctx context.Context, accountID, productID primitive.ObjectID) ([]EntryDto, error) {
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	kept := make([]account.CartItem, 0, len(a.Cart))
	for _, item := range a.Cart {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	if err := s.accounts.ReplaceCart(ctx, accountID, kept); err != nil {
		return nil, err
	}
	return s.resolve(ctx, kept)
}

// resolve joins cart items with their product documents. A dangling
// reference is kept in the result so callers can see and repair it.
func (s *Service) resolve(ctx context.Context, items []account.CartItem) ([]EntryDto, error) {
	entries := make([]EntryDto, 0, len(items))
	for _, item := range items {
		entry := EntryDto{ProductID: item.ProductID.Hex(), Qty: item.Qty}
		p, err := s.products.FindByID(ctx, item.ProductID)
		if err == nil {
			entry.Product = p
		} else if !errors.Is(err, product.ErrProductNotFound) {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
