package order

import (
	"errors"
	"fmt"
)

var ErrOrderNotFound = errors.New("order not found")
var ErrAccessDenied = errors.New("access denied")

var ErrEmptyCart = errors.New("cart is empty")
var ErrShippingAddressRequired = errors.New("shipping address required")
var ErrProductUnavailable = errors.New("product not available")
var ErrInsufficientStock = errors.New("insufficient stock")
var ErrInvalidStatus = errors.New("invalid order status")

// CartUnavailableError reports that every cart entry referenced a product
// that no longer exists. The removed entries travel with the error as a
// diagnostic payload for the caller.
type CartUnavailableError struct {
	Removed []RemovedItem
}

func (e *CartUnavailableError) Error() string {
	return fmt.Sprintf("all %d cart items are no longer available", len(e.Removed))
}
