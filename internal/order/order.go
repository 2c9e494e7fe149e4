// Package order holds customer orders and the checkout flow that creates
// them from a cart.
package order

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is an order's lifecycle stage. Transitions are deliberately
// unconstrained: any status may follow any other.
type Status string

const (
	StatusPending        Status = "Pending"
	StatusPacked         Status = "Packed"
	StatusShipped        Status = "Shipped"
	StatusOutForDelivery Status = "Out for Delivery"
	StatusDelivered      Status = "Delivered"
	StatusCancelled      Status = "Cancelled"
	StatusReturned       Status = "Returned"
)

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPacked, StatusShipped, StatusOutForDelivery,
		StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// Item is a line item: a snapshot of the product's name, image and price
// at order time plus the ordered quantity. Later product changes never
// alter it.
type Item struct {
	ProductID primitive.ObjectID `bson:"product" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Price     float64            `bson:"price" json:"price"`
	Qty       int32              `bson:"qty" json:"qty"`
}

// ShippingAddress is the delivery address captured at order time.
type ShippingAddress struct {
	Name    string `bson:"name,omitempty" json:"name,omitempty"`
	Address string `bson:"address" json:"address"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
	Pincode string `bson:"pincode,omitempty" json:"pincode,omitempty"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// HistoryEntry is one append-only audit record. Prior entries are never
// mutated or removed.
type HistoryEntry struct {
	Status    Status             `bson:"status" json:"status"`
	Note      string             `bson:"note" json:"note"`
	Location  string             `bson:"location" json:"location"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	UpdatedBy primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
}

// Order is a persisted order document.
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"user" json:"userId"`
	Items             []Item             `bson:"orderItems" json:"orderItems"`
	ShippingAddress   ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod     string             `bson:"paymentMethod" json:"paymentMethod"`
	ItemsPrice        float64            `bson:"itemsPrice" json:"itemsPrice"`
	ShippingPrice     float64            `bson:"shippingPrice" json:"shippingPrice"`
	TaxPrice          float64            `bson:"taxPrice" json:"taxPrice"`
	TotalPrice        float64            `bson:"totalPrice" json:"totalPrice"`
	IsPaid            bool               `bson:"isPaid" json:"isPaid"`
	PaidAt            *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	IsDelivered       bool               `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt       *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	Status            Status             `bson:"status" json:"status"`
	TrackingNumber    string             `bson:"trackingNumber" json:"trackingNumber"`
	EstimatedDelivery *time.Time         `bson:"estimatedDelivery,omitempty" json:"estimatedDelivery,omitempty"`
	History           []HistoryEntry     `bson:"history" json:"history"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
