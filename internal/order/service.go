package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GauravMishra537/Kisaan-Dost/internal/account"
	"github.com/GauravMishra537/Kisaan-Dost/internal/product"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultPaymentMethod = "Cash on Delivery"

// OrderService defines checkout, order retrieval and status tracking.
type OrderService interface {
	// PlaceOrder converts the account's cart into a persisted order and
	// adjusts inventory. See the PlaceOrder method for the full contract.
	PlaceOrder(ctx context.Context, accountID primitive.ObjectID, dto PlaceOrderDto) (*PlacementDto, error)

	// FindByID retrieves a single order for its owner or an admin.
	// Returns ErrOrderNotFound or ErrAccessDenied.
	FindByID(ctx context.Context, caller *account.Account, id primitive.ObjectID) (*Order, error)

	// FindByUser returns the account's orders, newest first.
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]Order, error)

	// GetStatus returns the tracking summary for the owner or an admin.
	GetStatus(ctx context.Context, caller *account.Account, id primitive.ObjectID) (*StatusDto, error)

	// UpdateStatus records a new status/tracking state and appends one
	// history entry. Callers must be Admin or hold the Farmer role.
	UpdateStatus(ctx context.Context, caller *account.Account, id primitive.ObjectID, dto StatusUpdateDto) (*StatusDto, error)

	// List returns a page of orders with an optional status filter.
	List(ctx context.Context, status Status, page, limit int64) (*OrderPageDto, error)
}

// Service implements OrderService over the order, account and product stores.
type Service struct {
	orders   Store
	accounts account.Store
	products product.Store
}

// NewService creates a new instance of OrderService.
func NewService(orders Store, accounts account.Store, products product.Store) *Service {
	return &Service{
		orders:   orders,
		accounts: accounts,
		products: products,
	}
}

// PlaceOrderDto is the checkout payload. Price fields are pointers so a
// missing value can be told apart from an explicit zero; absent shipping
// and tax default to 0 and an absent total is computed server-side.
type PlaceOrderDto struct {
	ShippingAddress *ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
	ShippingPrice   *float64         `json:"shippingPrice" validate:"omitempty,gte=0"`
	TaxPrice        *float64         `json:"taxPrice" validate:"omitempty,gte=0"`
	TotalPrice      *float64         `json:"totalPrice" validate:"omitempty,gte=0"`
}

// RemovedItem is a cart entry dropped during checkout because its product
// no longer exists.
type RemovedItem struct {
	ProductID string `json:"productId"`
	Qty       int32  `json:"qty"`
}

// PlacementDto is the result of a successful checkout.
type PlacementDto struct {
	Order        *Order        `json:"order"`
	RemovedItems []RemovedItem `json:"removedItems,omitempty"`
}

// StatusUpdateDto is a partial tracking update. Absent fields leave the
// prior value; TrackingNumber uses a pointer so an explicit empty string
// clears it.
type StatusUpdateDto struct {
	Status            Status     `json:"status"`
	TrackingNumber    *string    `json:"trackingNumber"`
	Note              string     `json:"note"`
	Location          string     `json:"location"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

// StatusDto is the tracking summary of an order.
type StatusDto struct {
	Status            Status         `json:"status"`
	TrackingNumber    string         `json:"trackingNumber"`
	EstimatedDelivery *time.Time     `json:"estimatedDelivery,omitempty"`
	History           []HistoryEntry `json:"history"`
}

// OrderPageDto is one page of an admin order listing.
type OrderPageDto struct {
	Orders []Order          `json:"orders"`
	Meta   account.PageMeta `json:"meta"`
}

// PlaceOrder converts the account's cart into a persisted order.
//
// The flow is deliberately non-transactional: the order insert is the
// commit point, and the stock decrements and cart clear that follow it
// are best-effort. Each write is an independent commit; a failure after
// the insert is logged and never rolls the order back. Concurrent
// placements can therefore oversell a product, which is accepted.
func (s *Service) PlaceOrder(ctx context.Context, accountID primitive.ObjectID, dto PlaceOrderDto) (*PlacementDto, error) {
	// Load the account and its cart.
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(acc.Cart) == 0 {
		return nil, ErrEmptyCart
	}

	// Shipping address: prefer the request, fall back to the saved one.
	shipping, err := resolveShipping(dto.ShippingAddress, acc)
	if err != nil {
		return nil, err
	}

	// Classify cart entries: entries whose product vanished out-of-band
	// are removed, the rest stay valid.
	var removed []RemovedItem
	var valid []account.CartItem
	for _, item := range acc.Cart {
		_, err := s.products.FindByID(ctx, item.ProductID)
		switch {
		case err == nil:
			valid = append(valid, item)
		case errors.Is(err, product.ErrProductNotFound):
			removed = append(removed, RemovedItem{ProductID: item.ProductID.Hex(), Qty: item.Qty})
		default:
			return nil, err
		}
	}

	// Cart repair: persist the corrected cart before going further, then
	// reload so the rest of the flow sees the corrected state.
	if len(removed) > 0 {
		if err := s.accounts.ReplaceCart(ctx, accountID, valid); err != nil {
			return nil, err
		}
		acc, err = s.accounts.FindByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		valid = acc.Cart
		if len(valid) == 0 {
			return nil, &CartUnavailableError{Removed: removed}
		}
	}

	// Stock check and line-item snapshot. Every item is checked against a
	// fresh read before any write; one failing item aborts the placement.
	items := make([]Item, 0, len(valid))
	var itemsPrice float64
	for _, entry := range valid {
		p, err := s.products.FindByID(ctx, entry.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", entry.ProductID.Hex(), ErrProductUnavailable)
		}
		if p.Stock < entry.Qty {
			return nil, fmt.Errorf("not enough stock for %s, available: %d: %w", p.Name, p.Stock, ErrInsufficientStock)
		}
		items = append(items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Qty:       entry.Qty,
		})
		itemsPrice += p.Price * float64(entry.Qty)
	}

	var shippingPrice, taxPrice float64
	if dto.ShippingPrice != nil {
		shippingPrice = *dto.ShippingPrice
	}
	if dto.TaxPrice != nil {
		taxPrice = *dto.TaxPrice
	}
	totalPrice := itemsPrice + shippingPrice + taxPrice
	if dto.TotalPrice != nil {
		totalPrice = *dto.TotalPrice
	}

	paymentMethod := dto.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = defaultPaymentMethod
	}

	location := shipping.City
	if location == "" {
		location = shipping.Address
	}

	o := &Order{
		UserID:          acc.ID,
		Items:           items,
		ShippingAddress: *shipping,
		PaymentMethod:   paymentMethod,
		ItemsPrice:      itemsPrice,
		ShippingPrice:   shippingPrice,
		TaxPrice:        taxPrice,
		TotalPrice:      totalPrice,
		IsPaid:          false,
		Status:          StatusPending,
		History: []HistoryEntry{{
			Status:    StatusPending,
			Note:      "Order created",
			Location:  location,
			Timestamp: time.Now(),
			UpdatedBy: acc.ID,
		}},
	}

	// Commit point: once the order document is saved, the order is placed
	// even if a later step fails.
	created, err := s.orders.Insert(ctx, o)
	if err != nil {
		return nil, err
	}

	s.decrementStock(ctx, created)

	// Clear the cart. The order and the decrements above stay committed
	// even when this fails.
	if err := s.accounts.ReplaceCart(ctx, acc.ID, nil); err != nil {
		return nil, fmt.Errorf("failed to clear cart after order %s: %w", created.ID.Hex(), err)
	}

	return &PlacementDto{Order: created, RemovedItems: removed}, nil
}

// decrementStock walks the order's line items and subtracts each quantity
// from the product's stock. Sequential and best-effort: a missing product
// or a lost race against a concurrent order is logged and skipped, and
// never aborts the remaining items. Stock is never written below zero.
func (s *Service) decrementStock(ctx context.Context, o *Order) {
	for _, item := range o.Items {
		p, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			slog.ErrorContext(ctx, "Product not found when decrementing stock",
				"product", item.ProductID.Hex(), "order", o.ID.Hex(), "error", err)
			continue
		}
		if p.Stock < item.Qty {
			slog.ErrorContext(ctx, "Insufficient stock while finalizing order",
				"product", p.Name, "available", p.Stock, "requested", item.Qty, "order", o.ID.Hex())
			continue
		}
		if err := s.products.SetStock(ctx, p.ID, p.Stock-item.Qty); err != nil {
			slog.ErrorContext(ctx, "Failed to decrement stock",
				"product", p.Name, "order", o.ID.Hex(), "error", err)
		}
	}
}

func resolveShipping(requested *ShippingAddress, acc *account.Account) (*ShippingAddress, error) {
	if requested != nil && strings.TrimSpace(requested.Address) != "" {
		return requested, nil
	}
	if acc.Address != "" {
		return &ShippingAddress{Address: acc.Address}, nil
	}
	return nil, ErrShippingAddressRequired
}

// FindByID retrieves a single order for its owner or an admin.
func (s *Service) FindByID(ctx context.Context, caller *account.Account, id primitive.ObjectID) (*Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != caller.ID && caller.Role != account.RoleAdmin {
		return nil, ErrAccessDenied
	}
	return o, nil
}

// FindByUser returns the account's orders, newest first.
func (s *Service) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]Order, error) {
	return s.orders.FindByUser(ctx, userID)
}

// GetStatus returns the tracking summary for the owner or an admin.
func (s *Service) GetStatus(ctx context.Context, caller *account.Account, id primitive.ObjectID) (*StatusDto, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != caller.ID && caller.Role != account.RoleAdmin {
		return nil, ErrAccessDenied
	}
	return toStatusDto(o), nil
}

// UpdateStatus records a new status/tracking state for an order.
// Fields absent from the update keep their prior value; the tracking
// number accepts an explicit empty string to clear it. Exactly one
// history entry is appended per call.
func (s *Service) UpdateStatus(ctx context.Context, caller *account.Account, id primitive.ObjectID, dto StatusUpdateDto) (*StatusDto, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Any farmer may update any order; seller scoping is not enforced.
	if caller.Role != account.RoleAdmin && caller.Role != account.RoleFarmer {
		return nil, ErrAccessDenied
	}

	if dto.Status != "" {
		if !dto.Status.IsValid() {
			return nil, fmt.Errorf("%q: %w", dto.Status, ErrInvalidStatus)
		}
		o.Status = dto.Status
	}
	if dto.TrackingNumber != nil {
		o.TrackingNumber = *dto.TrackingNumber
	}
	if dto.EstimatedDelivery != nil {
		o.EstimatedDelivery = dto.EstimatedDelivery
	}

	o.History = append(o.History, HistoryEntry{
		Status:    o.Status,
		Note:      dto.Note,
		Location:  dto.Location,
		Timestamp: time.Now(),
		UpdatedBy: caller.ID,
	})

	// Cancelled and Returned do not restore stock.
	if o.Status == StatusDelivered {
		now := time.Now()
		o.IsDelivered = true
		o.DeliveredAt = &now
	} else {
		o.IsDelivered = false
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return toStatusDto(o), nil
}

// List returns a page of orders with an optional status filter.
func (s *Service) List(ctx context.Context, status Status, page, limit int64) (*OrderPageDto, error) {
	orders, total, err := s.orders.List(ctx, ListParams{
		Status: status,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return &OrderPageDto{
		Orders: orders,
		Meta:   account.PageMeta{Page: page, Limit: limit, Total: total},
	}, nil
}

func toStatusDto(o *Order) *StatusDto {
	return &StatusDto{
		Status:            o.Status,
		TrackingNumber:    o.TrackingNumber,
		EstimatedDelivery: o.EstimatedDelivery,
		History:           o.History,
	}
}
