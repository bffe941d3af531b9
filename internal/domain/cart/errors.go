// internal/domain/cart/errors.go
package cart

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLineNotFound is returned when an operation targets a product that
// is not in the cart
var ErrLineNotFound = errors.New("item not found in cart")

// InsufficientStockError indicates a requested quantity exceeds the
// available stock headroom; raised before any network call
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InvalidQuantityError indicates a quantity below 1 was requested via
// update; callers must use remove to take a line to zero
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d: must be at least 1", e.Quantity)
}

// MultiStoreCartError indicates the cart spans more than one store,
// violating the single-store checkout invariant
type MultiStoreCartError struct {
	StoreIDs []string
}

func (e *MultiStoreCartError) Error() string {
	return fmt.Sprintf("cart spans multiple stores: %s", strings.Join(e.StoreIDs, ", "))
}
