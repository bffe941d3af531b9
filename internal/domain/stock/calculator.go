// internal/domain/stock/calculator.go
package stock

// Calculation represents the stock projection for a single product
type Calculation struct {
	Total     int `json:"total"`
	InCart    int `json:"in_cart"`
	Available int `json:"available"`
}

// AvailableToAdd returns the remaining stock headroom for a product
// after subtracting what is already reserved in the cart. Never negative.
func AvailableToAdd(totalStock, reservedInCart int) int {
	available := totalStock - reservedInCart
	if available < 0 {
		return 0
	}
	return available
}

// Calculate builds the full stock projection from the authoritative
// total and the quantity currently reserved in the cart
func Calculate(totalStock, reservedInCart int) Calculation {
	return Calculation{
		Total:     totalStock,
		InCart:    reservedInCart,
		Available: AvailableToAdd(totalStock, reservedInCart),
	}
}

// CanChangeQuantity reports whether a quantity change is admissible.
// available is the headroom beyond the current reservation, so only the
// delta counts against it; reducing quantity is always admissible.
func CanChangeQuantity(currentQuantity, newQuantity, available int) bool {
	return newQuantity-currentQuantity <= available
}
