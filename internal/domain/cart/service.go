// internal/domain/cart/service.go
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/cashback-cart/internal/domain/stock"
	"github.com/your-org/cashback-cart/internal/gateway"
)

// Service is the mutation façade in front of one user's reconciliation
// store. Every mutation validates stock client-side where possible,
// calls the gateway, and reconciles by refreshing the full read model.
type Service struct {
	store   *Store
	gateway Gateway
	logger  *logrus.Entry

	// token is the bearer token the gateway forwards on background
	// refreshes, where no request context is available
	tokenMu sync.RWMutex
	token   string

	// locks serializes mutations per product so a rapid double-tap
	// cannot interleave conflicting gateway calls
	locks keyedLocks

	refreshTimeout time.Duration
	bg             sync.WaitGroup
}

// NewService creates a mutation façade around a store
func NewService(store *Store, gw Gateway, logger *logrus.Logger, refreshTimeout time.Duration) *Service {
	return &Service{
		store:          store,
		gateway:        gw,
		logger:         logger.WithField("user_id", store.userID),
		refreshTimeout: refreshTimeout,
	}
}

// SetAuthToken records the caller's current bearer token for use by
// background reconciliation
func (s *Service) SetAuthToken(token string) {
	s.tokenMu.Lock()
	s.token = token
	s.tokenMu.Unlock()
}

func (s *Service) authToken() string {
	s.tokenMu.RLock()
	defer s.tokenMu.RUnlock()
	return s.token
}

// AddItem adds a product to the cart. When the caller supplies the
// stock headroom it already knows, requests exceeding it fail fast
// before any network call. There is no optimistic local add; the line
// appears once the refresh confirms it.
func (s *Service) AddItem(ctx context.Context, productID string, quantity int, knownAvailable *int) error {
	if quantity < 1 {
		quantity = 1
	}

	if knownAvailable != nil && quantity > *knownAvailable {
		return &InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: *knownAvailable,
		}
	}

	unlock := s.locks.lock(productID)
	defer unlock()

	if err := s.gateway.AddItem(ctx, productID, quantity); err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Warn("Add to cart failed")
		return err
	}

	s.store.Refresh(ctx)
	return nil
}

// RemoveItem removes a product from the cart. The local line and stock
// record are dropped synchronously; a gateway failure is surfaced but
// the removal stands, since the user's intent was explicit.
func (s *Service) RemoveItem(ctx context.Context, productID string) error {
	unlock := s.locks.lock(productID)
	defer unlock()

	if !s.store.DropLine(productID) {
		// the local view can lag the backend after a degraded refresh, so
		// forward the delete anyway; it is a no-op remotely when the line
		// truly does not exist
		if err := s.gateway.RemoveItem(ctx, productID); err != nil {
			return ErrLineNotFound
		}
		s.refreshAsync()
		return nil
	}

	err := s.gateway.RemoveItem(ctx, productID)
	s.refreshAsync()
	if err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Warn("Remove from cart failed remotely, keeping local removal")
		return err
	}
	return nil
}

// UpdateQuantity sets a line's quantity. Quantities below 1 are
// rejected; callers remove the line instead. When headroom is known,
// only the increase counts against it, so decreasing always succeeds.
// The local view updates optimistically before the gateway confirms.
func (s *Service) UpdateQuantity(ctx context.Context, productID string, newQuantity int, knownAvailable *int) error {
	if newQuantity < 1 {
		return &InvalidQuantityError{Quantity: newQuantity}
	}

	unlock := s.locks.lock(productID)
	defer unlock()

	current, ok := s.store.LineQuantity(productID)
	if !ok {
		return ErrLineNotFound
	}

	if knownAvailable != nil && !stock.CanChangeQuantity(current, newQuantity, *knownAvailable) {
		return &InsufficientStockError{
			ProductID: productID,
			Requested: newQuantity - current,
			Available: *knownAvailable,
		}
	}

	s.store.ApplyQuantity(productID, newQuantity)

	err := s.gateway.UpdateItem(ctx, productID, newQuantity)
	s.refreshAsync()
	if err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Warn("Quantity update failed remotely")
		return err
	}
	return nil
}

// Clear empties the cart. The gateway call is best-effort: local state
// always ends up empty since that matches the user's intent, but a
// remote failure is still returned so the UI can surface it.
func (s *Service) Clear(ctx context.Context) error {
	err := s.gateway.Clear(ctx)
	s.store.Reset()
	if err != nil {
		s.logger.WithError(err).Warn("Remote cart clear failed, local cart emptied anyway")
		return err
	}
	return nil
}

// Refresh reconciles the read model against the backend
func (s *Service) Refresh(ctx context.Context) {
	s.store.Refresh(ctx)
}

// Snapshot returns the current read model
func (s *Service) Snapshot() Snapshot {
	return s.store.Snapshot()
}

// GetAvailableStock returns the remaining headroom for a product
func (s *Service) GetAvailableStock(productID string) int {
	return s.store.GetAvailableStock(productID)
}

// GetStockCalculation returns the full stock projection for a product
func (s *Service) GetStockCalculation(productID string) stock.Calculation {
	return s.store.GetStockCalculation(productID)
}

// ValidateSingleStore verifies all cart lines belong to the same store,
// the invariant checkout relies on
func (s *Service) ValidateSingleStore() error {
	snap := s.store.Snapshot()

	seen := make(map[string]bool)
	stores := []string{}
	for _, line := range snap.Items {
		if !seen[line.StoreID] {
			seen[line.StoreID] = true
			stores = append(stores, line.StoreID)
		}
	}

	if len(stores) > 1 {
		return &MultiStoreCartError{StoreIDs: stores}
	}
	return nil
}

// refreshAsync reconciles in the background with a bounded timeout,
// detached from the request that triggered it
func (s *Service) refreshAsync() {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()

		if token := s.authToken(); token != "" {
			ctx = gateway.WithToken(ctx, token)
		}
		s.store.Refresh(ctx)
	}()
}

// keyedLocks hands out one mutex per product id
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
