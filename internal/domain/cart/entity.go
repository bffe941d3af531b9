// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// State represents the lifecycle state of a reconciliation store
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
)

// CartLine represents one product's presence in the cart
type CartLine struct {
	ProductID          string  `json:"product_id"`
	Name               string  `json:"name"`
	Image              string  `json:"image"`
	UnitPrice          float64 `json:"unit_price"`
	Quantity           int     `json:"quantity"`
	CashbackPercentage float64 `json:"cashback_percentage"`
	StoreID            string  `json:"store_id"`
}

// StockRecord is the per-product inventory view derived from the last
// reconciliation. AvailableToAdd is always recomputed from the other
// two fields, never stored independently.
type StockRecord struct {
	TotalStock     int `json:"total_stock"`
	ReservedInCart int `json:"reserved_in_cart"`
	AvailableToAdd int `json:"available_to_add"`
}

// CartTotals represents calculated cart totals
type CartTotals struct {
	ItemCount      int     `json:"item_count"`     // Number of unique lines
	TotalQuantity  int     `json:"total_quantity"` // Sum of all quantities
	SubTotal       float64 `json:"sub_total"`
	CashbackAmount float64 `json:"cashback_amount"` // Earned cashback at current prices
}

// Snapshot is the immutable read model handed to consumers: cart lines,
// the stock map, and derived totals, all frozen at one point in time
type Snapshot struct {
	Items     []CartLine             `json:"items"`
	Stock     map[string]StockRecord `json:"stock"`
	Totals    CartTotals             `json:"totals"`
	State     State                  `json:"state"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// calculateTotals derives cart totals from the lines
func calculateTotals(lines []CartLine) CartTotals {
	var totals CartTotals

	totals.ItemCount = len(lines)
	for _, line := range lines {
		lineTotal := line.UnitPrice * float64(line.Quantity)
		totals.TotalQuantity += line.Quantity
		totals.SubTotal += lineTotal
		totals.CashbackAmount += lineTotal * line.CashbackPercentage / 100
	}

	return totals
}
