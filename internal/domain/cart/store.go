// internal/domain/cart/store.go
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/cashback-cart/internal/domain/stock"
	"github.com/your-org/cashback-cart/internal/gateway"
	"golang.org/x/sync/errgroup"
)

// Store owns the in-memory cart lines and stock map for one user and
// reconciles them against the marketplace backend. It is the only
// writer; consumers read immutable snapshots.
type Store struct {
	gateway Gateway
	cache   SnapshotCache // may be nil
	userID  string
	logger  *logrus.Entry

	mu    sync.RWMutex
	lines []CartLine
	stock map[string]StockRecord
	state State
	epoch uint64
}

// NewStore creates an empty reconciliation store for one user
func NewStore(gw Gateway, cache SnapshotCache, userID string, logger *logrus.Logger) *Store {
	return &Store{
		gateway: gw,
		cache:   cache,
		userID:  userID,
		logger:  logger.WithField("user_id", userID),
		stock:   make(map[string]StockRecord),
		state:   StateUninitialized,
	}
}

// Refresh re-fetches the authoritative cart and per-product stock and
// atomically replaces the local view. A failed cart fetch degrades to
// an empty cart without touching the stock map; no error escapes to
// the caller.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateUninitialized {
		s.state = StateLoading
	}
	started := s.epoch
	s.mu.Unlock()

	remote, err := s.gateway.FetchCart(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Cart fetch failed, degrading to empty cart")
		s.mu.Lock()
		if s.epoch == started {
			s.lines = nil
			s.state = StateReady
		}
		s.mu.Unlock()
		return
	}

	lines := normalizeLines(remote)

	// Fan out one stock fetch per product and join before applying
	// anything, so a half-fetched stock map is never observable.
	counts := make([]int, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			counts[i] = s.gateway.FetchStock(gctx, line.ProductID)
			return nil
		})
	}
	_ = g.Wait() // FetchStock reports failures as zero stock

	stockMap := make(map[string]StockRecord, len(lines))
	for i, line := range lines {
		stockMap[line.ProductID] = StockRecord{
			TotalStock:     counts[i],
			ReservedInCart: line.Quantity,
			AvailableToAdd: stock.AvailableToAdd(counts[i], line.Quantity),
		}
	}

	s.mu.Lock()
	if s.epoch != started {
		// The store was reset while this refresh was in flight; its
		// result no longer describes anything the user wants to see.
		s.mu.Unlock()
		s.logger.Debug("Discarding refresh result from a previous epoch")
		return
	}
	s.lines = lines
	s.stock = stockMap
	s.state = StateReady
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persistSnapshot(snap)
}

// Snapshot returns an immutable copy of the current read model
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	lines := make([]CartLine, len(s.lines))
	copy(lines, s.lines)

	stockMap := make(map[string]StockRecord, len(s.stock))
	for id, rec := range s.stock {
		stockMap[id] = rec
	}

	return Snapshot{
		Items:     lines,
		Stock:     stockMap,
		Totals:    calculateTotals(lines),
		State:     s.state,
		UpdatedAt: time.Now().UTC(),
	}
}

// Prime seeds an uninitialized store from a cached snapshot so reads
// can be served while the first reconciliation is still in flight
func (s *Store) Prime(snap *Snapshot) {
	if snap == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUninitialized {
		return
	}

	s.lines = make([]CartLine, len(snap.Items))
	copy(s.lines, snap.Items)
	s.stock = make(map[string]StockRecord, len(snap.Stock))
	for id, rec := range snap.Stock {
		s.stock[id] = rec
	}
	s.state = StateReady
}

// DropLine synchronously removes a cart line and its stock record. No
// other line's availability depends on the removed product, so no
// recompute is needed.
func (s *Store) DropLine(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i, line := range s.lines {
		if line.ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			found = true
			break
		}
	}
	delete(s.stock, productID)
	return found
}

// ApplyQuantity optimistically sets a line's quantity and recomputes
// only that product's stock record, so the UI reflects the change
// before the remote round trip completes
func (s *Store) ApplyQuantity(productID string, quantity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID != productID {
			continue
		}
		s.lines[i].Quantity = quantity

		rec := s.stock[productID]
		rec.ReservedInCart = quantity
		rec.AvailableToAdd = stock.AvailableToAdd(rec.TotalStock, quantity)
		s.stock[productID] = rec
		return true
	}
	return false
}

// Reset empties the store and advances its epoch so in-flight refresh
// results are discarded when they land
func (s *Store) Reset() {
	s.mu.Lock()
	s.epoch++
	s.lines = nil
	s.stock = make(map[string]StockRecord)
	s.state = StateReady
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persistSnapshot(snap)
}

// LineQuantity returns the current quantity of a product in the cart
func (s *Store) LineQuantity(productID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, line := range s.lines {
		if line.ProductID == productID {
			return line.Quantity, true
		}
	}
	return 0, false
}

// GetAvailableStock returns the remaining headroom for a product.
// Unknown products report zero, the conservative default.
func (s *Store) GetAvailableStock(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stock[productID].AvailableToAdd
}

// GetStockCalculation returns the full stock projection for a product
func (s *Store) GetStockCalculation(productID string) stock.Calculation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.stock[productID]
	return stock.Calculate(rec.TotalStock, rec.ReservedInCart)
}

// persistSnapshot writes the snapshot to the cache best-effort; a cache
// failure never affects the in-memory state
func (s *Store) persistSnapshot(snap Snapshot) {
	if s.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := s.cache.Set(ctx, s.userID, &snap); err != nil {
		s.logger.WithError(err).Debug("Snapshot cache write failed")
	}
}

// normalizeLines maps remote cart items into the normalized cart line
// shape, defaulting missing product metadata and dropping zero-quantity
// lines
func normalizeLines(remote []gateway.CartItem) []CartLine {
	lines := make([]CartLine, 0, len(remote))
	for _, item := range remote {
		if item.Quantity < 1 {
			continue
		}
		line := CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if item.Product != nil {
			line.Name = item.Product.Name
			line.Image = item.Product.Image
			line.UnitPrice = item.Product.Price
			line.CashbackPercentage = item.Product.CashbackPercentage
			line.StoreID = item.Product.StoreID
		}
		lines = append(lines, line)
	}
	return lines
}
