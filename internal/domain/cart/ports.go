// internal/domain/cart/ports.go
package cart

import (
	"context"

	"github.com/your-org/cashback-cart/internal/gateway"
)

// Gateway is the remote marketplace surface the engine reconciles
// against. FetchStock never fails: the gateway reports zero stock when
// it cannot answer.
type Gateway interface {
	FetchCart(ctx context.Context) ([]gateway.CartItem, error)
	FetchStock(ctx context.Context, productID string) int
	AddItem(ctx context.Context, productID string, quantity int) error
	UpdateItem(ctx context.Context, productID string, quantity int) error
	RemoveItem(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

// SnapshotCache persists read-model snapshots between sessions so a new
// store can serve a stale view while the first reconciliation runs
type SnapshotCache interface {
	Get(ctx context.Context, userID string) (*Snapshot, error)
	Set(ctx context.Context, userID string, snap *Snapshot) error
	Delete(ctx context.Context, userID string) error
}
