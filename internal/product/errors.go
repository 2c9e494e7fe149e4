package product

import "errors"

var ErrProductNotFound = errors.New("product not found")
var ErrNotOwner = errors.New("product does not belong to this farmer")
var ErrNegativeStock = errors.New("stock count cannot be negative")
